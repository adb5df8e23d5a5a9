package runner

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pandausagies/postbot/internal/compose"
	"github.com/pandausagies/postbot/internal/engage"
	"github.com/pandausagies/postbot/internal/imagesel"
	"github.com/pandausagies/postbot/internal/publish"
)

// StageError is a failure attributed to one stage of a run.
type StageError struct {
	Stage string
	Err   error
}

func (e StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e StageError) Unwrap() error {
	return e.Err
}

// Report summarises one run.
type Report struct {
	RunID     string
	Mode      compose.Mode
	DryRun    bool
	StartedAt time.Time
	Image     *imagesel.Candidate
	Text      string
	Post      *publish.Result
	Agents    []engage.Outcome
	Errors    []StageError
}

func (r *Report) addError(stage string, err error) {
	r.Errors = append(r.Errors, StageError{Stage: stage, Err: err})
}

// Err joins all stage errors, or returns nil for a clean run.
func (r Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

func (r Report) log(logger *slog.Logger) {
	attrs := []any{
		"mode", r.Mode,
		"dry_run", r.DryRun,
		"image", r.Image != nil,
		"errors", len(r.Errors),
	}
	if r.Post != nil {
		attrs = append(attrs, "post_id", r.Post.PostID, "url", r.Post.URL, "media", r.Post.MediaAttached)
	}
	for _, out := range r.Agents {
		attrs = append(attrs, out.Agent, out.Actions)
	}
	logger.Info("run finished", attrs...)
}
