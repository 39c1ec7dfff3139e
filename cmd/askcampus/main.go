package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/telemetry"
)

var version = "dev"

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:           "askcampus",
		Short:         "Cited answers from an institution's public web content",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.yaml or ./config.yaml)")

	root.AddCommand(
		askCMD(&cfgPath),
		serveCMD(&cfgPath),
		mcpCMD(&cfgPath),
		migrateCMD(&cfgPath),
		scheduleCMD(&cfgPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// runtime is the process-wide setup shared by every subcommand.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	tracing *telemetry.Tracing
}

func setup(ctx context.Context, cfgPath string) (*runtime, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := telemetry.NewLogger(cfg.General)
	if err != nil {
		return nil, err
	}
	tracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry, version)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, tracing: tracing}, nil
}

func (r *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.tracing.Shutdown(ctx); err != nil {
		r.logger.Warn("tracing shutdown", zap.Error(err))
	}
	_ = r.logger.Sync()
}
