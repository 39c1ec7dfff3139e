package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mohammad-safakhou/askcampus/config"
)

// NewLogger builds the process logger. Debug mode switches to the
// development encoder; otherwise LogLevel selects the production level.
func NewLogger(cfg config.GeneralConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		if !cfg.Debug {
			zcfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	// stdout carries the rendered answer in the CLI.
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
