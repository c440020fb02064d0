package domain

import (
	"fmt"
	"strings"
)

type Priority int

const (
	PriorityUnspecified Priority = iota
	PriorityLow
	PriorityMedium
	PriorityImportant
	PriorityUrgent
)

var priorityNames = [...]string{"Unspecified", "Low", "Medium", "Important", "Urgent"}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

func (p Priority) Valid() bool {
	return p >= PriorityUnspecified && p <= PriorityUrgent
}

func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// Status values are ordered by completeness.
type Status int

const (
	StatusNotStarted Status = iota
	StatusPlanning
	StatusIntegration
	StatusDevelopment
	StatusTesting
	StatusComplete
)

var statusInfo = [...]struct{ key, label string }{
	{"not_started", "Not Started"},
	{"planning", "In-progress: Planning"},
	{"integration", "In-progress: Integration"},
	{"development", "In-progress: Development"},
	{"testing", "In-progress: Testing"},
	{"complete", "Complete"},
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusInfo[s].label
}

// Key is the short identifier used on the command line and in storage.
func (s Status) Key() string {
	if !s.Valid() {
		return ""
	}
	return statusInfo[s].key
}

func (s Status) Valid() bool {
	return s >= StatusNotStarted && s <= StatusComplete
}

func (s Status) InProgress() bool {
	return s > StatusNotStarted && s < StatusComplete
}

// ParseStatus accepts either the key or the display label.
func ParseStatus(s string) (Status, error) {
	for i, info := range statusInfo {
		if strings.EqualFold(s, info.key) || strings.EqualFold(s, info.label) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

type Tag uint8

const (
	TagFrontEnd Tag = iota
	TagBackEnd
	TagUIUX
	TagAPI
	tagCount
)

var tagInfo = [...]struct{ key, label string }{
	{"frontend", "Front-end"},
	{"backend", "Back-end"},
	{"uiux", "UI/UX"},
	{"api", "API"},
}

func (t Tag) String() string {
	if t >= tagCount {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagInfo[t].label
}

func ParseTag(s string) (Tag, error) {
	for i, info := range tagInfo {
		if strings.EqualFold(s, info.key) || strings.EqualFold(s, info.label) {
			return Tag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tag %q", s)
}

// TagSet is a bitmask of tags.
type TagSet uint8

func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

func (s TagSet) With(t Tag) TagSet { return s | 1<<t }

func (s TagSet) Has(t Tag) bool { return s&(1<<t) != 0 }

func (s TagSet) Tags() []Tag {
	var out []Tag
	for t := Tag(0); t < tagCount; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// BitVector renders the set as one '0'/'1' per tag in declaration order,
// e.g. "1010" for front-end and UI/UX.
func (s TagSet) BitVector() string {
	var b strings.Builder
	for t := Tag(0); t < tagCount; t++ {
		if s.Has(t) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func ParseBitVector(v string) (TagSet, error) {
	if len(v) != int(tagCount) {
		return 0, fmt.Errorf("tag bit vector %q must have %d digits", v, tagCount)
	}
	var s TagSet
	for i, c := range v {
		switch c {
		case '1':
			s = s.With(Tag(i))
		case '0':
		default:
			return 0, fmt.Errorf("tag bit vector %q contains %q", v, c)
		}
	}
	return s, nil
}

// ParseTagList reads a comma separated list of tag keys or labels.
func ParseTagList(v string) (TagSet, error) {
	var s TagSet
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := ParseTag(part)
		if err != nil {
			return 0, err
		}
		s = s.With(t)
	}
	return s, nil
}

func (s TagSet) String() string {
	tags := s.Tags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
