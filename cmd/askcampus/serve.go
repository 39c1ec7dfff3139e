package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/server"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			svc, err := app.Build(ctx, rt.cfg, rt.logger, reg)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					rt.logger.Warn("closing store", zap.Error(err))
				}
			}()

			addr := rt.cfg.Server.Address
			if cmd.Flags().Changed("addr") {
				addr = serveAddr
			}
			e := server.New(rt.cfg.Server, svc, reg, rt.logger.Named("http"))
			return server.Run(ctx, e, addr, rt.logger)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", ":10001", "listen address (overrides server.address)")
	return serve
}
