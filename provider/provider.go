package provider

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/telemetry"
	gemini_provider "github.com/mohammad-safakhou/askcampus/provider/gemini"
	langchain_provider "github.com/mohammad-safakhou/askcampus/provider/langchain"
	mock_provider "github.com/mohammad-safakhou/askcampus/provider/mock"
	openai_provider "github.com/mohammad-safakhou/askcampus/provider/openai"
)

// ErrUnsupportedProvider is returned for an unknown provider type.
var ErrUnsupportedProvider = errors.New("unsupported LLM provider")

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Ollama    Client = "ollama"
	Gemini    Client = "gemini"
	Mock      Client = "mock"
)

// CompletionService turns a prompt into a completion.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompletionService creates a completion client for one configured
// provider, wrapped with retries and instrumentation.
func NewCompletionService(ctx context.Context, name string, p config.LLMProvider, logger *zap.Logger, metrics *telemetry.Metrics) (CompletionService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		svc CompletionService
		err error
	)
	switch Client(p.Type) {
	case OpenAI:
		svc = openai_provider.NewOpenAIClient(p.APIKey, p.BaseURL, p.Model, p.Temperature, p.MaxTokens, p.Timeout)
	case Anthropic:
		svc, err = langchain_provider.NewAnthropicClient(p.APIKey, p.BaseURL, p.Model, p.Temperature, p.MaxTokens, p.Timeout)
	case Ollama:
		svc, err = langchain_provider.NewOllamaClient(p.BaseURL, p.Model, p.Temperature, p.MaxTokens, p.Timeout)
	case Gemini:
		svc, err = gemini_provider.NewGeminiClient(ctx, p.APIKey, p.BaseURL, p.Model, p.Temperature, p.MaxTokens, p.Timeout)
	case Mock:
		svc = mock_provider.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	if p.MaxRetries > 0 {
		svc = WithRetry(svc, p.MaxRetries, p.RetryBackoff, logger.With(zap.String("provider", name)))
	}
	return Instrument(svc, name, metrics), nil
}

// Router holds the completion service assigned to each pipeline task.
type Router struct {
	Grading   CompletionService
	Synthesis CompletionService
}

// NewRouter builds the services named by cfg.Routing. A provider routed to
// both tasks is constructed once.
func NewRouter(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger, metrics *telemetry.Metrics) (*Router, error) {
	built := make(map[string]CompletionService, 2)
	get := func(name string) (CompletionService, error) {
		if svc, ok := built[name]; ok {
			return svc, nil
		}
		p, ok := cfg.Providers[name]
		if !ok {
			return nil, fmt.Errorf("llm provider %q not configured", name)
		}
		svc, err := NewCompletionService(ctx, name, p, logger, metrics)
		if err != nil {
			return nil, err
		}
		built[name] = svc
		return svc, nil
	}

	grading, err := get(cfg.Routing.Grading)
	if err != nil {
		return nil, fmt.Errorf("grading route: %w", err)
	}
	synthesis, err := get(cfg.Routing.Synthesis)
	if err != nil {
		return nil, fmt.Errorf("synthesis route: %w", err)
	}
	return &Router{Grading: grading, Synthesis: synthesis}, nil
}
