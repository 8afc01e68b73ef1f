package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const productPage = `
<html><body>
<table id="nav"><tr><th>Menu</th></tr><tr><td>Home</td></tr></table>
<table>
  <tr><th>Product</th><th>Category</th><th>Energy</th><th>Price</th><th>Meal</th><th>Filler</th></tr>
  <tr><td>Onigiri (ume)</td><td>foods</td><td>170 kcal</td><td>¥130</td><td>breakfast</td><td></td></tr>
  <tr><td>Corn soup</td><td>foods</td><td>95 kcal</td><td>¥1,180</td><td></td><td>yes</td></tr>
</table>
</body></html>`

func TestParseHTML(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		items, err := ParseHTML(strings.NewReader(productPage), "lawson")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(items))
		}

		first := items[0]
		if first.Name != "Onigiri (ume)" || first.Calories != 170 || first.Price != 130 || first.Slot != SlotBreakfast {
			t.Errorf("Unexpected first item %+v", first)
		}
		second := items[1]
		if second.Price != 1180 || second.Slot != SlotAny || !second.Filler || second.Store != "lawson" {
			t.Errorf("Unexpected second item %+v", second)
		}
	})

	t.Run("NoProductTable", func(t *testing.T) {
		_, err := ParseHTML(strings.NewReader(`<table><tr><th>Name</th></tr></table>`), "x")
		if err == nil {
			t.Fatal("Expected an error when no table has kcal and price columns")
		}
	})

	t.Run("BadNumber", func(t *testing.T) {
		page := `<table><tr><th>Name</th><th>kcal</th><th>Price</th></tr><tr><td>Tea</td><td>n/a</td><td>100</td></tr></table>`
		_, err := ParseHTML(strings.NewReader(page), "x")
		if err == nil {
			t.Fatal("Expected an error for a non-numeric kcal cell")
		}
	})
}

func TestFetchHTML(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, productPage)
		}))
		defer server.Close()

		body, err := FetchHTML(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		defer body.Close()

		data, _ := io.ReadAll(body)
		if !strings.Contains(string(data), "Corn soup") {
			t.Error("Expected page body to be returned")
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		if _, err := FetchHTML(context.Background(), server.URL); err == nil {
			t.Fatal("Expected an error for non-200 status code, got nil")
		}
	})
}
