package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/scheduler"
)

func scheduleCMD(cfgPath *string) *cobra.Command {
	var once bool
	var schedule = &cobra.Command{
		Use:   "schedule",
		Short: "Re-ask the configured questions on their cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer rt.close()

			if len(rt.cfg.Schedule.Jobs) == 0 {
				return fmt.Errorf("no schedule.jobs configured")
			}
			svc, err := app.Build(ctx, rt.cfg, rt.logger, nil)
			if err != nil {
				return err
			}
			defer func() {
				if err := svc.Close(); err != nil {
					rt.logger.Warn("closing store", zap.Error(err))
				}
			}()

			sched, err := scheduler.New(rt.cfg.Schedule.Jobs, svc, time.Now(), rt.logger.Named("scheduler"))
			if err != nil {
				return err
			}
			if once {
				failed := 0
				for _, o := range sched.RunAll(ctx) {
					if o.Err != nil {
						failed++
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tchanged=%t\n", o.Job, o.RunID, o.State, o.Change.Changed)
				}
				if failed > 0 {
					return fmt.Errorf("%d scheduled job(s) failed", failed)
				}
				return nil
			}
			return sched.Run(ctx)
		},
	}
	schedule.Flags().BoolVar(&once, "once", false, "run every job immediately once and exit")
	return schedule
}
