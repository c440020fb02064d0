package domain

import "time"

type ActivityView struct {
	Open  bool    `json:"open"`
	Start *string `json:"start,omitempty" format:"date-time"`
	End   *string `json:"end,omitempty" format:"date-time"`
}

type LogView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Kind      string        `json:"kind" enum:"ActiveLog,InactiveLog"`
	Active    bool          `json:"active"`
	Immutable bool          `json:"immutable"`
	Activity  *ActivityView `json:"activity,omitempty"`
}

type TaskView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	LocationID    string   `json:"location_id"`
	LocationTitle string   `json:"location_title"`
	Description   string   `json:"description,omitempty"`
	StoryPoint    *float64 `json:"story_point,omitempty"`
	Priority      string   `json:"priority"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags,omitempty"`
	TagBits       string   `json:"tag_bits"`
	History       []string `json:"history"`
	Modifier      string   `json:"modifier,omitempty"`
	CreatedBy     string   `json:"created_by"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
	UpdatedAt     string   `json:"updated_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// TaskMeta is the bookkeeping stored next to a task.
type TaskMeta struct {
	CreatedBy string
	CreatedAt string
	UpdatedAt string
}

func NewActivityView(a *Activity) *ActivityView {
	if a == nil {
		return nil
	}
	return &ActivityView{Open: a.IsActive(), Start: formatTime(a.start), End: formatTime(a.end)}
}

func NewLogView(l *Log) LogView {
	return LogView{
		ID:        l.ID,
		Title:     l.Title,
		Kind:      string(l.Kind()),
		Active:    l.IsActive(),
		Immutable: l.IsImmutable(),
		Activity:  NewActivityView(l.Activity()),
	}
}

func NewTaskView(t *Task, meta TaskMeta) TaskView {
	s := t.State()
	v := TaskView{
		ID:            s.ID,
		Title:         s.Title,
		LocationID:    s.Location.ID,
		LocationTitle: s.Location.Title,
		Description:   s.Description,
		StoryPoint:    s.StoryPoint,
		Priority:      s.Priority.String(),
		Status:        s.Status.String(),
		TagBits:       s.Tags.BitVector(),
		History:       s.History,
		Modifier:      s.Modifier,
		CreatedBy:     meta.CreatedBy,
		CreatedAt:     meta.CreatedAt,
		UpdatedAt:     meta.UpdatedAt,
	}
	for _, tag := range s.Tags.Tags() {
		v.Tags = append(v.Tags, tag.String())
	}
	return v
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
