package runner

import (
	"context"
	"time"

	"github.com/pandausagies/postbot/internal/chance"
	"github.com/pandausagies/postbot/internal/config"
)

// ChooseTarget picks a posting time inside one of windows on now's date.
// A target that is not after now moves to the next day.
func ChooseTarget(now time.Time, windows []config.Window, random chance.Source) time.Time {
	w := chance.Pick(random, windows)
	hour := w.StartHour + random.IntN(w.EndHour-w.StartHour)
	minute := random.IntN(60)
	second := random.IntN(60)

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, second, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
