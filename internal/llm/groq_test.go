package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"konbini-planner/internal/config"
)

func TestGroqGenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer groq_key" {
				t.Errorf("Expected bearer groq_key, got '%s'", r.Header.Get("Authorization"))
			}
			var req groqRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("Failed to decode request: %v", err)
			}
			if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
				t.Errorf("Unexpected messages %+v", req.Messages)
			}
			fmt.Fprintln(w, `{"choices":[{"message":{"role":"assistant","content":"Looks balanced."}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`)
		}))
		defer server.Close()

		client := NewGroqClient(&config.Config{GroqAPIKey: "groq_key"})
		client.baseURL = server.URL

		resp, err := client.GenerateContent(context.Background(), "hello")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if resp.Content != "Looks balanced." {
			t.Errorf("Unexpected content '%s'", resp.Content)
		}
		if resp.Usage.PromptTokens != 12 || resp.Usage.TotalTokens != 15 || resp.Usage.Model != groqModel {
			t.Errorf("Unexpected usage %+v", resp.Usage)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewGroqClient(&config.Config{GroqAPIKey: "groq_key"})
		client.baseURL = server.URL

		if _, err := client.GenerateContent(context.Background(), "hello"); err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})
}

func TestFromConfigWithoutKeys(t *testing.T) {
	gen, err := FromConfig(context.Background(), &config.Config{})
	if err != nil || gen != nil {
		t.Errorf("Expected no generator and no error, got %v / %v", gen, err)
	}
}
