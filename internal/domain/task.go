package domain

import (
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxDescriptionLen = 1000
	MinStoryPoint     = 1
	MaxStoryPoint     = 10
)

// Task is a work item. All writes go through SetField, which validates the
// change against the task and its location and records it in the history.
// A Task is safe for concurrent use.
type Task struct {
	mu  sync.Mutex
	env *Env

	id          string
	title       string
	location    *Log
	description string
	storyPoint  *float64
	priority    Priority
	status      Status
	tags        TagSet
	history     []string
	modifier    string
}

// TaskOption sets an optional attribute at construction.
type TaskOption func(*Task)

func WithDescription(d string) TaskOption {
	return func(t *Task) { t.description = d }
}

func WithStoryPoint(sp float64) TaskOption {
	return func(t *Task) { t.storyPoint = &sp }
}

func WithPriority(p Priority) TaskOption {
	return func(t *Task) { t.priority = p }
}

func WithStatus(s Status) TaskOption {
	return func(t *Task) { t.status = s }
}

func WithTags(tags TagSet) TaskOption {
	return func(t *Task) { t.tags = tags }
}

// NewTask creates a task in location on behalf of creator.
func (e *Env) NewTask(title string, location *Log, creator string, opts ...TaskOption) (*Task, error) {
	t := &Task{env: e, id: uuid.NewString(), title: title, location: location}
	for _, opt := range opts {
		opt(t)
	}
	if t.title == "" {
		return nil, e.fail(ErrValidation, "title is empty")
	}
	if t.location == nil {
		return nil, e.fail(ErrValidation, "task location is required")
	}
	if utf8.RuneCountInString(t.description) > MaxDescriptionLen {
		return nil, e.fail(ErrValidation, "description cannot be over %d characters", MaxDescriptionLen)
	}
	if t.storyPoint != nil && !storyPointInRange(*t.storyPoint) {
		return nil, e.fail(ErrValidation, "initial story point must be between %d and %d", MinStoryPoint, MaxStoryPoint)
	}
	if !t.priority.Valid() || !t.status.Valid() {
		return nil, e.fail(ErrValidation, "task priority or status out of range")
	}
	t.history = []string{fmt.Sprintf("%s created the task %s", creator, t.title)}
	return t, nil
}

// TaskState is a plain copy of every task attribute.
type TaskState struct {
	ID          string
	Title       string
	Location    *Log
	Description string
	StoryPoint  *float64
	Priority    Priority
	Status      Status
	Tags        TagSet
	History     []string
	Modifier    string
}

// RestoreTask rebuilds a stored task. The history is taken as is.
func (e *Env) RestoreTask(s TaskState) (*Task, error) {
	if s.Title == "" {
		return nil, e.fail(ErrValidation, "title is empty")
	}
	if s.Location == nil {
		return nil, e.fail(ErrValidation, "task location is required")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return &Task{
		env:         e,
		id:          s.ID,
		title:       s.Title,
		location:    s.Location,
		description: s.Description,
		storyPoint:  copyFloat(s.StoryPoint),
		priority:    s.Priority,
		status:      s.Status,
		tags:        s.Tags,
		history:     append([]string(nil), s.History...),
		modifier:    s.Modifier,
	}, nil
}

func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TaskState{
		ID:          t.id,
		Title:       t.title,
		Location:    t.location,
		Description: t.description,
		StoryPoint:  copyFloat(t.storyPoint),
		Priority:    t.priority,
		Status:      t.status,
		Tags:        t.tags,
		History:     append([]string(nil), t.history...),
		Modifier:    t.modifier,
	}
}

func (t *Task) ID() string { return t.id }

func (t *Task) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

func (t *Task) Location() *Log {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location
}

func (t *Task) Description() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.description
}

// StoryPoint returns the estimate and whether one is set.
func (t *Task) StoryPoint() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.storyPoint == nil {
		return 0, false
	}
	return *t.storyPoint, true
}

func (t *Task) Priority() Priority {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Task) Tags() TagSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tags
}

func (t *Task) History() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.history...)
}

func (t *Task) Modifier() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.modifier
}

// SetField changes one attribute. Set the modifier first: every other field
// refuses to change without one. Writing a field's current value is a no-op.
func (t *Task) SetField(key string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := ParseField(key)
	if !ok {
		return t.env.fail(ErrUnknownField, "invalid field: %s, cannot modify a field which does not apply to task", key)
	}
	v, ok := coerce(f, value)
	if !ok {
		return t.env.fail(ErrTypeMismatch, "%s takes inputs of type %s, got %T", f, fieldTypes[f], value)
	}
	if err := t.checkPolicy(f, v); err != nil {
		return err
	}
	switch f {
	case FieldTags, FieldHistory:
		t.env.logger().Warn("task field cannot be modified yet", "task_id", t.id, "field", f.String())
		return nil
	case FieldModifier:
		t.modifier = v.(string)
		return nil
	}
	if t.modifier == "" {
		return t.env.fail(ErrState, "need to set the user who is performing the modifications")
	}
	if t.holds(f, v) {
		return nil
	}
	t.apply(f, v)
	t.history = append(t.history, fmt.Sprintf("%s changed the task's %s to %s", t.modifier, f, formatValue(v)))
	return nil
}

var fieldTypes = map[Field]string{
	FieldTitle:       "string",
	FieldLocation:    "*Log",
	FieldDescription: "string",
	FieldStoryPoint:  "int or float",
	FieldPriority:    "Priority",
	FieldStatus:      "Status",
	FieldTags:        "TagSet",
	FieldHistory:     "string",
	FieldModifier:    "string",
}

// coerce checks the shape of value for f and normalises numbers to float64.
func coerce(f Field, value any) (any, bool) {
	switch f {
	case FieldTitle, FieldDescription, FieldHistory, FieldModifier:
		v, ok := value.(string)
		return v, ok
	case FieldLocation:
		v, ok := value.(*Log)
		return v, ok && v != nil
	case FieldStoryPoint:
		switch n := value.(type) {
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case float64:
			return n, true
		}
		return nil, false
	case FieldPriority:
		v, ok := value.(Priority)
		return v, ok && v.Valid()
	case FieldStatus:
		v, ok := value.(Status)
		return v, ok && v.Valid()
	case FieldTags:
		v, ok := value.(TagSet)
		return v, ok
	}
	return nil, false
}

func (t *Task) checkPolicy(f Field, v any) error {
	switch f {
	case FieldDescription:
		if utf8.RuneCountInString(v.(string)) > MaxDescriptionLen {
			return t.env.fail(ErrValidation, "description cannot be over %d characters", MaxDescriptionLen)
		}
	case FieldStoryPoint:
		if !storyPointInRange(v.(float64)) {
			return t.env.fail(ErrRange, "story point value must be between %d and %d", MinStoryPoint, MaxStoryPoint)
		}
	case FieldStatus:
		if !t.location.IsActive() {
			return t.env.fail(ErrState, "task status can only be updated when the task is in an active sprint")
		}
	case FieldLocation:
		dest := v.(*Log)
		if t.location.IsActive() {
			return t.env.fail(ErrState, "task location can only be updated when the task is in an inactive location")
		}
		if dest.IsActive() {
			return t.env.fail(ErrState, "the provided location log is active, task cannot be moved to an active log")
		}
		if dest.IsImmutable() {
			return t.env.fail(ErrState, "the provided location log is immutable and no longer accepts tasks")
		}
		if t.status == StatusComplete {
			return t.env.fail(ErrState, "task is complete, complete tasks cannot be moved")
		}
	}
	return nil
}

func (t *Task) holds(f Field, v any) bool {
	switch f {
	case FieldTitle:
		return t.title == v.(string)
	case FieldLocation:
		return t.location == v.(*Log) || t.location.ID == v.(*Log).ID
	case FieldDescription:
		return t.description == v.(string)
	case FieldStoryPoint:
		return t.storyPoint != nil && *t.storyPoint == v.(float64)
	case FieldPriority:
		return t.priority == v.(Priority)
	case FieldStatus:
		return t.status == v.(Status)
	}
	return false
}

func (t *Task) apply(f Field, v any) {
	switch f {
	case FieldTitle:
		t.title = v.(string)
	case FieldLocation:
		t.location = v.(*Log)
	case FieldDescription:
		t.description = v.(string)
	case FieldStoryPoint:
		sp := v.(float64)
		t.storyPoint = &sp
	case FieldPriority:
		t.priority = v.(Priority)
	case FieldStatus:
		t.status = v.(Status)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func storyPointInRange(sp float64) bool {
	return sp >= MinStoryPoint && sp <= MaxStoryPoint
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
