package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by one model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Empty reports whether the provider returned no usage figures.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// AgentMeta holds operational metadata for a model-backed component run,
// such as the plan advisor.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
