package domain

import "time"

// Activity is the time window of a work period.
type Activity struct {
	env   *Env
	open  bool
	start *time.Time
	end   *time.Time
	owned bool
}

// NewActivity orders the window and drops it entirely when start is
// already in the past.
func (e *Env) NewActivity(start, end *time.Time) *Activity {
	a := &Activity{env: e, start: copyTime(start), end: copyTime(end)}
	if a.start != nil && a.end != nil && a.start.After(*a.end) {
		a.start, a.end = a.end, a.start
	}
	if a.start != nil && a.start.Before(e.now()) {
		a.start, a.end = nil, nil
	}
	a.RecomputeStatus()
	return a
}

// RestoreActivity rebuilds a stored activity without normalizing it.
func (e *Env) RestoreActivity(open bool, start, end *time.Time) *Activity {
	return &Activity{env: e, open: open, start: copyTime(start), end: copyTime(end)}
}

// IsActive returns the flag computed by the last RecomputeStatus.
func (a *Activity) IsActive() bool {
	return a.open
}

func (a *Activity) Start() *time.Time { return copyTime(a.start) }

func (a *Activity) End() *time.Time { return copyTime(a.end) }

// RecomputeStatus refreshes the open flag against the clock. A started
// window without an end loses its start.
//
// The window is flagged open once its end is behind the clock.
func (a *Activity) RecomputeStatus() {
	now := a.env.now()
	switch {
	case a.start == nil:
		a.open = false
	case !a.start.After(now):
		if a.end == nil {
			a.start = nil
			a.open = false
			return
		}
		a.open = a.end.Before(now)
	default:
		a.open = false
	}
}

// ChangeDates reschedules a window that is neither live nor still running.
func (a *Activity) ChangeDates(newStart, newEnd time.Time) error {
	now := a.env.now()
	if a.IsActive() {
		return a.env.fail(ErrInvalidState, "dates cannot be modified in an active window")
	}
	if a.end != nil && a.end.After(now) {
		return a.env.fail(ErrInvalidState, "dates cannot be modified before the window has ended")
	}
	if !newStart.Before(newEnd) {
		return a.env.fail(ErrInvalidRange, "start date must be before the end date")
	}
	if !now.Before(newStart) {
		return a.env.fail(ErrInvalidRange, "invalid start date, start date must be after the current date")
	}
	a.start = &newStart
	a.end = &newEnd
	a.RecomputeStatus()
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
