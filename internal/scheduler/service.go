// Package scheduler triggers posting runs from a cron expression for
// `postbot serve`. Nothing about the schedule is persisted.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pandausagies/postbot/internal/logging"
	"github.com/pandausagies/postbot/internal/runner"
)

// RunFunc performs one posting run.
type RunFunc func(ctx context.Context) (runner.Report, error)

// Service fires RunFunc on a cron schedule, skipping a tick while the
// previous run is still going.
type Service struct {
	schedule string
	run      RunFunc
	cron     *cron.Cron
	mu       sync.Mutex
	started  bool

	background atomic.Int32
	inflight   sync.WaitGroup
}

// NewService creates a cron-backed trigger in loc.
func NewService(schedule string, loc *time.Location, run RunFunc) *Service {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	return &Service{
		schedule: strings.TrimSpace(schedule),
		run:      run,
		cron:     cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Start registers the run and starts cron execution. Runs use ctx.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}
	if s.run == nil {
		return errors.New("scheduler run func is not configured")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.execute(ctx, "cron")
	}); err != nil {
		return fmt.Errorf("register cron schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.started = true
	logging.Logger().Info("scheduler started", "cron", s.schedule, "next", s.nextLocked().Format(time.RFC3339))
	return nil
}

// Stop stops cron and waits for in-flight runs, including ones started by
// RunInBackground, to finish or for ctx cancellation.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	var cronDone context.Context
	if s.started {
		cronDone = s.cron.Stop()
		s.started = false
	}
	s.mu.Unlock()
	if cronDone == nil && s.background.Load() == 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		if cronDone != nil {
			<-cronDone.Done()
		}
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Logger().Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next scheduled run, or the zero time when not started.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Service) nextLocked() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow executes one run immediately, outside the cron schedule.
func (s *Service) RunNow(ctx context.Context) (runner.Report, error) {
	if s.run == nil {
		return runner.Report{}, errors.New("scheduler run func is not configured")
	}
	return s.execute(ctx, "manual")
}

// RunInBackground starts one run immediately on its own goroutine. Stop
// waits for it.
func (s *Service) RunInBackground(ctx context.Context) error {
	if s.run == nil {
		return errors.New("scheduler run func is not configured")
	}
	s.background.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.background.Add(-1)
		_, _ = s.execute(ctx, "startup")
	}()
	return nil
}

func (s *Service) execute(ctx context.Context, source string) (runner.Report, error) {
	logger := logging.Logger()
	logger.Info("scheduled run", "source", source)

	report, err := s.run(ctx)
	switch {
	case errors.Is(err, runner.ErrRunInProgress):
		logger.Info("scheduled run skipped, another run holds the lock", "source", source)
	case err != nil:
		logger.Warn("scheduled run failed", "source", source, "run_id", report.RunID, "err", err)
	default:
		logger.Info("scheduled run complete", "source", source, "run_id", report.RunID)
	}
	return report, err
}
