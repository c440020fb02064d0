package domain

import (
	"log/slog"
	"time"

	"sprintboard/internal/signal"
)

// Env carries what the board entities share: the signal registry, the
// clock and the logger. Entities keep a pointer to the Env that built them.
type Env struct {
	Signals *signal.Registry
	Now     func() time.Time
	Logger  *slog.Logger
}

// NewEnv builds an Env, filling any nil argument with the process default.
func NewEnv(signals *signal.Registry, now func() time.Time, logger *slog.Logger) *Env {
	if signals == nil {
		signals = signal.NewRegistry()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{Signals: signals, Now: now, Logger: logger}
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Env) fail(kind error, format string, args ...any) error {
	return e.Signals.Raisef(kind, format, args...)
}
