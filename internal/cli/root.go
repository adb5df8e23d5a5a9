// Package cli wires Cobra subcommands to application dependencies; it is a thin controller with no business logic.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandausagies/postbot/internal/bootstrap"
	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/logging"
)

// ErrFirstRun is returned after the first-run bootstrap wrote a fresh config.
// It is an onboarding outcome, not a failure.
var ErrFirstRun = errors.New("first run setup complete")

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "postbot",
		Short: "Scheduled posting assistant for the band account",
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The config and version commands only print and should not
			// trigger bootstrap/first-run onboarding behavior.
			switch cmd.Name() {
			case "config", "version":
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setLogLevel(cfg.Log.Level, verbose)

			firstRun := false
			if _, err := os.Stat(cfg.ConfigPath()); errors.Is(err, os.ErrNotExist) {
				firstRun = true
			} else if err != nil {
				return fmt.Errorf("stat postbot config file %q: %w", cfg.ConfigPath(), err)
			}

			if err := bootstrap.Initialize(cfg); err != nil {
				return err
			}

			if firstRun {
				if _, err := fmt.Fprintf(
					cmd.ErrOrStderr(),
					"First run setup complete.\nEdit config file: %s\nPut images in: %s\nRestart postbot.\n",
					cfg.ConfigPath(),
					cfg.Images.Dir,
				); err != nil {
					return err
				}
				return ErrFirstRun
			}

			warnStartupConditions(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to `postbot run` when no subcommand is provided.
			runCmd, _, err := cmd.Find([]string{"run"})
			if err != nil {
				return err
			}
			runCmd.SetContext(cmd.Context())
			return runCmd.RunE(runCmd, args)
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")

	return root
}

func setLogLevel(raw string, verbose bool) {
	if verbose {
		logging.SetLevel(slog.LevelDebug)
		return
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		// Validation reports the bad value later; keep the default meanwhile.
		return
	}
	logging.SetLevel(level)
}
