package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/mcpserver"
)

func mcpCMD(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the research tool over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			svc, err := app.Build(ctx, rt.cfg, rt.logger, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					rt.logger.Warn("closing store", zap.Error(err))
				}
			}()

			rt.logger.Info("mcp server listening on stdio")
			return mcpserver.New(svc, version, rt.logger.Named("mcp")).ServeStdio()
		},
	}
}
