package scheduler

import (
	"github.com/pandausagies/postbot/internal/logging"
)

// cronLogger routes robfig/cron's internal logging to the process logger.
// Info goes to debug since cron logs every wake-up.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logging.Logger().Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logging.Logger().Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
