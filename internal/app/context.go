package app

import (
	"context"
	"errors"
	"fmt"

	"sprintboard/internal/config"
	"sprintboard/internal/domain"
	"sprintboard/internal/engine"
	"sprintboard/internal/repo"
)

// LoadConfig reads board.yml from the workspace, falling back to defaults,
// and applies non-empty overrides for the logging section.
func LoadConfig(workspace, logLevel, logFormat string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(workspace)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureBacklog returns the board's default inactive log, creating it on
// first use.
func EnsureBacklog(ctx context.Context, e *engine.Engine, actorID string) (*domain.Log, error) {
	title := e.Config.Board.Backlog
	l, err := e.Repo.FindLogByTitle(ctx, title)
	if err == nil {
		if l.Kind() != domain.KindInactive {
			return nil, fmt.Errorf("backlog %q exists but is an active log", title)
		}
		return l, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if actorID == "" {
		actorID = "local-user"
	}
	l, err = e.CreateInactiveLog(ctx, title, actorID)
	if err != nil {
		return nil, fmt.Errorf("create backlog: %w", err)
	}
	return l, nil
}

// ResolveLog maps an empty log reference to the backlog and otherwise looks
// the log up by id, then by title.
func ResolveLog(ctx context.Context, e *engine.Engine, ref, actorID string) (*domain.Log, error) {
	if ref == "" {
		return EnsureBacklog(ctx, e, actorID)
	}
	l, err := e.GetLog(ctx, ref)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	l, err = e.Repo.FindLogByTitle(ctx, ref)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("log %q not found", ref)
		}
		return nil, err
	}
	return e.GetLog(ctx, l.ID)
}
