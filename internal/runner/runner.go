// Package runner orchestrates one posting run: decide the mode, pick an
// image, compose, publish, then run the engagement agents.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/compose"
	"github.com/pandausagies/postbot/internal/config"
	"github.com/pandausagies/postbot/internal/engage"
	"github.com/pandausagies/postbot/internal/imagesel"
	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/publish"
	"github.com/pandausagies/postbot/internal/store"
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("another run is in progress")

// Stage names used in logs and reports.
const (
	StageSelectImage = "select_image"
	StageCompose     = "compose"
	StagePublish     = "publish"
	StageNotify      = "notify"
)

// ImageSelector picks the image for a run.
type ImageSelector interface {
	Select(ctx context.Context, now time.Time) (*imagesel.Candidate, error)
}

// Composer writes the post text.
type Composer interface {
	Compose(ctx context.Context, mode compose.Mode, imageContext string) (compose.Draft, error)
}

// Publisher publishes the post.
type Publisher interface {
	Publish(ctx context.Context, text, imagePath string) (publish.Result, error)
}

// Notifier is told about each published post.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

// Options configures the orchestrator.
type Options struct {
	SpecialWeekday time.Weekday
	Location       *time.Location
	// LockPath is the run lock file. Empty disables locking.
	LockPath string
	// DryRun composes without publishing or engaging.
	DryRun bool
	// DelayWindows enables the pre-run delay when non-empty.
	DelayWindows []config.Window
}

// Deps are the collaborators of one run.
type Deps struct {
	Images    ImageSelector
	Composer  Composer
	Publisher Publisher
	Agents    []engage.Agent
	Notifier  Notifier
	Clock     chance.Clock
	Random    chance.Source
	// Sleep waits for d or until ctx is done. Defaults to Wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner executes posting runs.
type Runner struct {
	opts Options
	deps Deps
}

// New builds a runner.
func New(opts Options, deps Deps) *Runner {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Clock == nil {
		deps.Clock = chance.SystemClock{}
	}
	if deps.Random == nil {
		deps.Random = chance.NewSource()
	}
	if deps.Sleep == nil {
		deps.Sleep = Wait
	}
	return &Runner{opts: opts, deps: deps}
}

// ModeFor returns the post mode for now: band on the special weekday in
// loc, daily otherwise.
func ModeFor(now time.Time, loc *time.Location, special time.Weekday) compose.Mode {
	if now.In(loc).Weekday() == special {
		return compose.ModeBand
	}
	return compose.ModeDaily
}

// Run performs one full run. The returned error is non-nil when the run
// could not start, was cancelled, or failed to produce a published post;
// engagement failures are only recorded in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:  uuid.NewString(),
		DryRun: r.opts.DryRun,
	}
	logger := logging.Logger().With("run_id", report.RunID)

	if r.opts.LockPath != "" {
		lock, err := store.TryLock(r.opts.LockPath)
		if errors.Is(err, store.ErrLocked) {
			logger.Warn("run skipped, lock is held", "lock", r.opts.LockPath)
			return report, ErrRunInProgress
		}
		if err != nil {
			return report, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("release run lock failed", "lock", r.opts.LockPath, "err", err)
			}
		}()
	}

	if len(r.opts.DelayWindows) > 0 {
		now := r.deps.Clock.Now().In(r.opts.Location)
		target := ChooseTarget(now, r.opts.DelayWindows, r.deps.Random)
		wait := target.Sub(now)
		logger.Info("waiting for posting time", "target", target.Format(time.RFC3339), "wait", wait.Round(time.Second).String())
		if err := r.deps.Sleep(ctx, wait); err != nil {
			logger.Info("run cancelled during delay", "err", err)
			return report, err
		}
	}

	now := r.deps.Clock.Now()
	report.StartedAt = now
	report.Mode = ModeFor(now, r.opts.Location, r.opts.SpecialWeekday)
	logger.Info("run started", "mode", report.Mode, "dry_run", r.opts.DryRun)

	var runErr error
	if err := r.stage(StageSelectImage, func() error {
		img, err := r.deps.Images.Select(ctx, now)
		report.Image = img
		return err
	}); err != nil {
		report.addError(StageSelectImage, err)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		logger.Warn("image selection failed, posting without image", "err", err)
	}
	imagePath, imageContext := "", ""
	if report.Image != nil {
		imagePath, imageContext = report.Image.Path, report.Image.Context
		logger.Info("image chosen", "source", report.Image.Source, "path", imagePath)
	}

	var draft compose.Draft
	err := r.stage(StageCompose, func() error {
		var err error
		draft, err = r.deps.Composer.Compose(ctx, report.Mode, imageContext)
		return err
	})
	switch {
	case err == nil:
		report.Text = draft.Final
		logger.Info("composed post", "text", draft.Final)
	case errors.Is(err, compose.ErrEmptyContent):
		report.addError(StageCompose, err)
		logger.Warn("generated post is empty, skipping publish")
	default:
		report.addError(StageCompose, err)
		logger.Error("compose failed, skipping publish", "err", err)
		runErr = fmt.Errorf("compose post: %w", err)
	}

	if report.Text != "" && !r.opts.DryRun {
		var res publish.Result
		err := r.stage(StagePublish, func() error {
			var err error
			res, err = r.deps.Publisher.Publish(ctx, report.Text, imagePath)
			return err
		})
		if err != nil {
			report.addError(StagePublish, err)
			logger.Error("publish failed", "err", err)
			runErr = fmt.Errorf("publish post: %w", err)
		} else {
			report.Post = &res
			r.notify(ctx, logger, &report)
		}
	}

	if !r.opts.DryRun {
		for _, agent := range r.deps.Agents {
			if ctx.Err() != nil {
				break
			}
			var out engage.Outcome
			err := r.stage(agent.Name(), func() error {
				var err error
				out, err = agent.Run(ctx)
				return err
			})
			if out.Agent == "" {
				out.Agent = agent.Name()
			}
			report.Agents = append(report.Agents, out)
			if err != nil {
				report.addError(agent.Name(), err)
				logger.Warn("engagement agent failed", "agent", agent.Name(), "err", err)
				continue
			}
			logger.Info("engagement agent done", "agent", out.Agent, "actions", out.Actions, "skipped", out.Skipped, "disabled", out.Disabled)
		}
	}

	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	report.log(logger)
	return report, runErr
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, report *Report) {
	if r.deps.Notifier == nil {
		return
	}
	snapshot := *report
	if err := r.stage(StageNotify, func() error {
		return r.deps.Notifier.Notify(ctx, snapshot)
	}); err != nil {
		report.addError(StageNotify, err)
		logger.Warn("notify failed", "err", err)
	}
}

// stage runs fn, turning a panic into an error attributed to name.
func (r *Runner) stage(name string, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s stage panicked: %v", name, p)
		}
	}()
	return fn()
}
