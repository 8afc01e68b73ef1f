package llm

import (
	"context"

	"konbini-planner/internal/config"
	"konbini-planner/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// FromConfig picks Gemini when its key is set, then Groq. It returns nil
// when neither is configured.
func FromConfig(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	switch {
	case cfg.GeminiAPIKey != "":
		gc, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gc, nil
	case cfg.GroqAPIKey != "":
		return NewGroqClient(cfg), nil
	}
	return nil, nil
}
