package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// gpt-4o-mini list prices, USD per 1M tokens
const (
	inputPricePerMillion  = 0.15
	outputPricePerMillion = 0.60
)

// OpenAIClient implements Client on the OpenAI chat completions API.
type OpenAIClient struct {
	client  *openai.Client
	config  Config
	limiter *rate.Limiter
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := c.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := c.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a helpful travel assistant. Reply in Japanese unless the prompt demands a machine-readable format.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	usdJPY := c.config.USDJPYRate
	if usdJPY == 0 {
		usdJPY = 150
	}
	inputCost := float64(resp.Usage.PromptTokens) / 1_000_000 * inputPricePerMillion
	outputCost := float64(resp.Usage.CompletionTokens) / 1_000_000 * outputPricePerMillion

	return &Completion{
		Text: strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			CostJPY:          round4((inputCost + outputCost) * usdJPY),
		},
	}, nil
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
