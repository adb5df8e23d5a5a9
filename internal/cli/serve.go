package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run posting on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Schedule.Validate(); err != nil {
				return err
			}
			r, err := buildRunner(cfg, false)
			if err != nil {
				return err
			}
			loc, err := cfg.Post.Location()
			if err != nil {
				return err
			}

			logging.Logger().Info(
				"starting scheduler",
				"cron", cfg.Schedule.Cron,
				"timezone", loc.String(),
				"provider", cfg.LLM.Provider,
				"model", cfg.LLM.Model,
				"home", cfg.HomeDir,
			)

			service := scheduler.NewService(cfg.Schedule.Cron, loc, r.Run)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := service.Start(runCtx); err != nil {
				return err
			}
			if runNow {
				if err := service.RunInBackground(runCtx); err != nil {
					return err
				}
			}

			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := service.Stop(shutdownCtx); err != nil {
				return err
			}
			logging.Logger().Info("scheduler exited")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "now", false, "Also run once immediately on startup")
	return cmd
}
