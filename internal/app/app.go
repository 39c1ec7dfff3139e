// Package app wires configuration into a ready research service shared by
// the CLI, HTTP, MCP and scheduler surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/research"
	"github.com/mohammad-safakhou/askcampus/internal/store"
	"github.com/mohammad-safakhou/askcampus/internal/telemetry"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/mohammad-safakhou/askcampus/provider"
	"github.com/mohammad-safakhou/askcampus/tools/web_fetch"
	"github.com/mohammad-safakhou/askcampus/tools/web_search"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("query must not be empty")

// Researcher runs the pipeline for one query.
type Researcher interface {
	Research(ctx context.Context, query string, overrides ...research.Override) (models.ResearchResult, error)
}

// AskOptions are per-request pipeline overrides. A nil Threshold and a zero
// MaxPages keep the configured values.
type AskOptions struct {
	Threshold *float64
	MaxPages  int
}

// Validate checks override bounds.
func (o AskOptions) Validate() error {
	if o.Threshold != nil && (*o.Threshold < 0 || *o.Threshold > 1) {
		return fmt.Errorf("threshold must be within [0,1], got %v", *o.Threshold)
	}
	if o.MaxPages < 0 {
		return fmt.Errorf("max_pages must be >= 0, got %d", o.MaxPages)
	}
	return nil
}

func (o AskOptions) overrides() []research.Override {
	var out []research.Override
	if o.Threshold != nil {
		out = append(out, research.WithThreshold(*o.Threshold))
	}
	if o.MaxPages > 0 {
		out = append(out, research.WithMaxPages(o.MaxPages))
	}
	return out
}

// Answer is a finished run plus where it was persisted.
type Answer struct {
	Result models.ResearchResult `json:"result"`
	Files  map[string]string     `json:"files,omitempty"`
}

type App struct {
	Researcher Researcher
	Store      store.ResultStore
	Logger     *zap.Logger
	Provider   string
}

// Build constructs every collaborator named by cfg. reg may be nil to skip
// metric registration.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics *telemetry.Metrics
	if reg != nil {
		metrics = telemetry.NewMetrics(reg)
	}

	router, err := provider.NewRouter(ctx, cfg.LLM, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("llm providers: %w", err)
	}
	searcher, err := web_search.NewWebSearcher(cfg.Search, cfg.Pipeline, logger.Named("search"))
	if err != nil {
		return nil, fmt.Errorf("web searcher: %w", err)
	}
	fetcher := web_fetch.NewWebFetcher(cfg.Pipeline, logger.Named("fetch"))

	providerName := cfg.LLM.Routing.Synthesis
	st, err := store.New(ctx, cfg.Storage, providerName, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("result store: %w", err)
	}

	orch := research.NewOrchestrator(cfg.Pipeline, research.Deps{
		Searcher:  searcher,
		Fetcher:   fetcher,
		Grading:   router.Grading,
		Synthesis: router.Synthesis,
		Logger:    logger.Named("research"),
		Metrics:   metrics,
	})
	logger.Info("research service ready",
		zap.String("search", cfg.Search.Provider),
		zap.String("fetch", string(web_fetch.TypeFor(cfg.Pipeline))),
		zap.String("grading", cfg.LLM.Routing.Grading),
		zap.String("synthesis", providerName),
		zap.String("storage", cfg.Storage.Driver))
	return &App{Researcher: orch, Store: st, Logger: logger, Provider: providerName}, nil
}

// Ask runs the pipeline on query exactly as given and persists the result.
// A persistence failure is logged and the answer is still returned.
func (a *App) Ask(ctx context.Context, query string, opts AskOptions) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, ErrEmptyQuery
	}
	if err := opts.Validate(); err != nil {
		return Answer{}, err
	}
	result, err := a.Researcher.Research(ctx, query, opts.overrides()...)
	if err != nil {
		return Answer{}, err
	}
	answer := Answer{Result: result}
	if a.Store == nil {
		return answer, nil
	}
	files, err := a.Store.Save(ctx, result)
	if err != nil {
		a.logger().Warn("saving result failed", zap.String("id", result.ID), zap.Error(err))
		return answer, nil
	}
	answer.Files = files
	return answer, nil
}

func (a *App) Get(ctx context.Context, id string) (models.ResearchResult, error) {
	if a.Store == nil {
		return models.ResearchResult{}, store.ErrNotFound
	}
	return a.Store.Get(ctx, id)
}

func (a *App) List(ctx context.Context, limit int) ([]models.ResearchResult, error) {
	if a.Store == nil {
		return []models.ResearchResult{}, nil
	}
	return a.Store.List(ctx, limit)
}

func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
