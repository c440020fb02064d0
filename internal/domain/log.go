package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogKind tags the two log variants.
type LogKind string

const (
	KindActive   LogKind = "ActiveLog"
	KindInactive LogKind = "InactiveLog"
)

func ParseLogKind(s string) (LogKind, bool) {
	switch LogKind(s) {
	case KindActive, KindInactive:
		return LogKind(s), true
	}
	return "", false
}

// Log is a container for tasks. Active logs own an Activity; inactive logs
// have no window and are never open.
type Log struct {
	ID    string
	Title string

	kind     LogKind
	activity *Activity
	env      *Env
}

// NewActiveLog builds an active log around activity, allocating a fresh
// open-ended window when activity is nil.
func (e *Env) NewActiveLog(title string, activity *Activity) (*Log, error) {
	if title == "" {
		return nil, e.fail(ErrValidation, "log title is empty")
	}
	if activity == nil {
		activity = e.NewActivity(nil, nil)
	}
	if activity.owned {
		return nil, e.fail(ErrValidation, "activity already belongs to another log")
	}
	activity.owned = true
	return &Log{ID: uuid.NewString(), Title: title, kind: KindActive, activity: activity, env: e}, nil
}

func (e *Env) NewInactiveLog(title string) (*Log, error) {
	if title == "" {
		return nil, e.fail(ErrValidation, "log title is empty")
	}
	return &Log{ID: uuid.NewString(), Title: title, kind: KindInactive, env: e}, nil
}

// RestoreLog rebuilds a stored log. activity is ignored for inactive logs.
func (e *Env) RestoreLog(id, title string, kind LogKind, activity *Activity) (*Log, error) {
	switch kind {
	case KindActive:
		l, err := e.NewActiveLog(title, activity)
		if err != nil {
			return nil, err
		}
		l.ID = id
		return l, nil
	case KindInactive:
		l, err := e.NewInactiveLog(title)
		if err != nil {
			return nil, err
		}
		l.ID = id
		return l, nil
	}
	return nil, e.fail(ErrValidation, "unknown log kind %q", kind)
}

func (l *Log) Kind() LogKind { return l.kind }

// Activity returns the owned window, or nil for an inactive log.
func (l *Log) Activity() *Activity {
	if l.kind != KindActive {
		return nil
	}
	return l.activity
}

// IsActive reports whether the log is open to status changes.
func (l *Log) IsActive() bool {
	switch l.kind {
	case KindActive:
		return l.activity.IsActive()
	default:
		return false
	}
}

// IsImmutable reports whether the log has stopped accepting tasks.
func (l *Log) IsImmutable() bool {
	switch l.kind {
	case KindActive:
		end := l.activity.end
		return end != nil && l.env.now().After(*end)
	default:
		return false
	}
}

// ChangeDates reschedules the window of an active log.
func (l *Log) ChangeDates(start, end time.Time) error {
	if l.kind != KindActive {
		return l.env.fail(ErrInvalidState, "inactive logs have no dates to change")
	}
	return l.activity.ChangeDates(start, end)
}

func (l *Log) String() string {
	return l.Title
}
