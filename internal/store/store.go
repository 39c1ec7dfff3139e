// Package store persists finished research runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("research result not found")

// ResultStore saves and retrieves research runs. Save returns a map of
// artifact kind to location (file path, table row or cache key).
type ResultStore interface {
	Save(ctx context.Context, result models.ResearchResult) (map[string]string, error)
	Get(ctx context.Context, id string) (models.ResearchResult, error)
	List(ctx context.Context, limit int) ([]models.ResearchResult, error)
	Close() error
}

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 20

// New opens the store selected by cfg.Driver. providerName is recorded in
// file artifacts.
func New(ctx context.Context, cfg config.StorageConfig, providerName string, logger *zap.Logger) (ResultStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "none":
		return Discard{}, nil
	case "file":
		return NewFileStore(cfg.File, providerName, logger)
	case "postgres":
		if cfg.Postgres.AutoMigrate {
			if err := Migrate(cfg.Postgres.DSN(), "up", 0); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("postgres schema up to date")
		}
		return NewPostgresWithDSN(ctx, cfg.Postgres.DSN(), cfg.Postgres.Timeout)
	case "redis":
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Discard drops every result.
type Discard struct{}

func (Discard) Save(context.Context, models.ResearchResult) (map[string]string, error) {
	return map[string]string{}, nil
}

func (Discard) Get(context.Context, string) (models.ResearchResult, error) {
	return models.ResearchResult{}, ErrNotFound
}

func (Discard) List(context.Context, int) ([]models.ResearchResult, error) {
	return []models.ResearchResult{}, nil
}

func (Discard) Close() error { return nil }

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
