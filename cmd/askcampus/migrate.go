package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/internal/store"
)

func migrateCMD(cfgPath *string) *cobra.Command {
	var direction string
	var steps int

	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			pg := rt.cfg.Storage.Postgres
			if err := pg.Validate(); err != nil {
				return fmt.Errorf("postgres not configured: %w", err)
			}
			if err := store.Migrate(pg.DSN(), direction, steps); err != nil {
				return err
			}
			rt.logger.Info("migrations applied", zap.String("direction", direction), zap.Int("steps", steps))
			return nil
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")
	return migrate
}
