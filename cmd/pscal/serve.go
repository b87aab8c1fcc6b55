package main

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	appLog "pscal/internal/log"
	"pscal/internal/reminder"
	"pscal/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the iCalendar feed and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched, err := reminder.New(a.cal, reminder.Options{
				Spec:     a.cfg.Reminder,
				Location: a.loc,
				Details:  a.details(),
			})
			if err != nil {
				return err
			}

			appLog.Info("pscal starting",
				"listen", a.cfg.Listen,
				"epoch", a.cal.Epoch(),
				"reminder", a.cfg.Reminder,
				"timezone", a.loc.String(),
			)

			var wg sync.WaitGroup
			wg.Go(func() { sched.Run(ctx) })

			srv := web.NewServer(a.cfg, a.cal, sched)
			err = srv.Serve(ctx)

			// Serve may fail before ctx is done; stop the scheduler too.
			stop()
			wg.Wait()

			if err != nil {
				appLog.Error("http server stopped", err)
				return err
			}
			appLog.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address; overrides config")
	return cmd
}
