package langchain_provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
)

// client adapts a langchaingo model to single-prompt completion.
type client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// New wraps an existing langchaingo model.
func New(llm llms.Model, temperature float64, maxTokens int, timeout time.Duration) *client {
	return &client{llm: llm, temperature: temperature, maxTokens: maxTokens, timeout: timeout}
}

// NewAnthropicClient builds a Claude-backed client.
func NewAnthropicClient(apiKey, baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) (*client, error) {
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	opts := []anthropic.Option{anthropic.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, anthropic.WithToken(apiKey))
	}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	llm, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return New(llm, temperature, maxTokens, timeout), nil
}

// NewOllamaClient builds a client for a local Ollama server.
func NewOllamaClient(baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) (*client, error) {
	if model == "" {
		model = "llama3"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return New(llm, temperature, maxTokens, timeout), nil
}

func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, opts...)
}
