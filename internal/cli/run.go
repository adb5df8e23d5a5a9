package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/compose"
	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/engage"
	"github.com/pandausagies/postbot/internal/imagesel"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/notify"
	"github.com/pandausagies/postbot/internal/platform"
	"github.com/pandausagies/postbot/internal/provider"
	"github.com/pandausagies/postbot/internal/publish"
	"github.com/pandausagies/postbot/internal/runner"
	"github.com/pandausagies/postbot/internal/state"
)

// platformClient is everything the publisher and the agents call.
type platformClient interface {
	publish.Client
	engage.Client
}

var (
	providerFactory       = provider.NewProviderFromConfig
	imageGeneratorFactory = provider.NewImageGeneratorFromConfig
	platformFactory       = func(cfg config.PlatformConfig) (platformClient, error) {
		return platform.New(cfg)
	}
)

type runFlags struct {
	delay  bool
	dryRun bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compose and publish one post, then run engagement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("delay") {
				cfg.Delay.Enabled = flags.delay
			}

			r, err := buildRunner(cfg, flags.dryRun)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := r.Run(runCtx)
			if flags.dryRun {
				if werr := writeDryRun(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.delay, "delay", false, "Wait until a random time inside the configured windows before posting")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Compose the post and print it without publishing or engaging")
	return cmd
}

// buildRunner validates cfg and wires one orchestrator from it. Dry runs need
// no platform credentials and never write selection state.
func buildRunner(cfg *config.Config, dryRun bool) (*runner.Runner, error) {
	validate := cfg.Validate
	if dryRun {
		validate = cfg.ValidateOffline
	}
	if err := validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Post.Location()
	if err != nil {
		return nil, err
	}
	weekday, err := cfg.Images.Weekday()
	if err != nil {
		return nil, err
	}

	text, err := providerFactory(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("create text provider: %w", err)
	}
	// Dry runs never generate, so nothing lands in the generated dir.
	var images provider.ImageGenerator
	if !dryRun && cfg.Images.GenerationEnabled() {
		images, err = imageGeneratorFactory(cfg.Images)
		if err != nil {
			return nil, fmt.Errorf("create image generator: %w", err)
		}
	}

	random := chance.NewSource()
	var selection state.Store = state.NewFileStore(cfg.StatePath())
	if dryRun {
		selection = state.ReadOnly(selection)
	}

	selector := imagesel.New(imagesel.Options{
		Probability:    cfg.Images.Probability,
		SpecialWeekday: weekday,
		Location:       loc,
		ManualDir:      cfg.Images.Dir,
		GeneratedDir:   cfg.Images.GeneratedDir,
		Model:          cfg.Images.Model,
		Size:           cfg.Images.Size,
		Quality:        cfg.Images.Quality,
	}, imagesel.Deps{
		Random: random,
		Images: images,
		Vision: text,
		State:  selection,
		Logger: logging.Logger().With("component", "imagesel"),
	})

	composeOpts := compose.Options{
		Members:   cfg.Post.Members,
		MaxLength: cfg.Post.MaxLength,
	}
	if cfg.Post.ReleaseLink.Enabled {
		composeOpts.ReleaseLink = cfg.Post.ReleaseLink.URL
	}
	composer := compose.New(text, random, composeOpts)

	opts := runner.Options{
		SpecialWeekday: weekday,
		Location:       loc,
		LockPath:       cfg.RunLockPath(),
		DryRun:         dryRun,
	}
	if cfg.Delay.Enabled {
		opts.DelayWindows, err = cfg.Delay.ParseWindows()
		if err != nil {
			return nil, err
		}
	}
	deps := runner.Deps{
		Images:   selector,
		Composer: composer,
		Random:   random,
	}

	if !dryRun {
		client, err := platformFactory(cfg.Platform)
		if err != nil {
			return nil, fmt.Errorf("create platform client: %w", err)
		}
		deps.Publisher = publish.New(client)
		deps.Agents = newAgents(cfg.Engagement, client, composer)
		if tg := cfg.Notify.Telegram; tg.Enabled {
			deps.Notifier = notify.NewTelegram(tg.Token, tg.ChatID)
		}
	}

	return runner.New(opts, deps), nil
}

func newAgents(cfg config.EngagementConfig, client engage.Client, replier engage.Replier) []engage.Agent {
	return []engage.Agent{
		engage.NewLikeBack(client, agentOptions(cfg.LikeBack)),
		engage.NewDiscovery(client, agentOptions(cfg.Discovery)),
		engage.NewSmartReply(client, replier, agentOptions(cfg.Replies)),
	}
}

func agentOptions(cfg config.AgentConfig) engage.Options {
	return engage.Options{Enabled: cfg.Enabled, Limit: cfg.Limit, Query: cfg.Query}
}

func writeDryRun(w io.Writer, report runner.Report) error {
	if report.Image != nil {
		if _, err := fmt.Fprintf(w, "image: %s (%s)\n", report.Image.Path, report.Image.Source); err != nil {
			return err
		}
	}
	if report.Text == "" {
		_, err := fmt.Fprintln(w, "(no post composed)")
		return err
	}
	_, err := fmt.Fprintln(w, report.Text)
	return err
}
