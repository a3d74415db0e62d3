package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Usage tracks token consumption and the estimated cost of one completion.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostJPY          float64 `json:"cost_jpy"`
}

// Completion is the opaque {text, usage} result every AI call produces.
type Completion struct {
	Text  string `json:"text"`
	Usage *Usage `json:"usage"`
}

// Client is the single capability the rest of the system sees: complete a
// text prompt. Provider selection is a configuration value so the fallback
// and self-healing paths can be tested against a deterministic stub.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific; empty uses the provider default)
	Model string

	APIKey  string
	BaseURL string

	// Timeout per request, seconds
	Timeout int

	MaxTokens int

	// USDJPYRate converts provider USD prices into the JPY cost estimate
	USDJPYRate float64

	// RequestsPerSecond caps outbound completion calls
	RequestsPerSecond float64
}

func DefaultConfig() Config {
	return Config{
		Provider:          "",
		Timeout:           30,
		MaxTokens:         1000,
		USDJPYRate:        150,
		RequestsPerSecond: 1,
	}
}

// NewClient builds a client from configuration. An empty provider — or a
// provider with no credentials — disables AI and returns (nil, nil);
// callers treat a nil client as "no fallback available". Only an unknown
// provider name is an error.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.APIKey == "" {
			log.Println("ai: no OpenAI API key configured, AI features disabled")
			return nil, nil
		}
		return NewOpenAIClient(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: openai)", cfg.Provider)
	}
}
