// Package signal deduplicates failure reports by message.
//
// A Registry hands out one *Signal per distinct message for its whole
// lifetime: raising the same message twice returns the same pointer and
// the same identity, so repeated failures compare equal with ==.
package signal

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Signal is a deduplicated failure. It implements error and unwraps to the
// kind it was first raised with, so callers match it with errors.Is.
type Signal struct {
	ID      uuid.UUID
	Message string
	kind    error
}

func (s *Signal) Error() string {
	return fmt.Sprintf("Error %s: %s", s.ID, s.Message)
}

func (s *Signal) Unwrap() error {
	return s.kind
}

// Kind returns the error kind attached when the signal was first raised.
func (s *Signal) Kind() error {
	return s.kind
}

// Registry stores signals keyed by message and by identity.
type Registry struct {
	mu        sync.Mutex
	byMessage map[string]*Signal
	byID      map[uuid.UUID]*Signal
	newID     func() uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{
		byMessage: map[string]*Signal{},
		byID:      map[uuid.UUID]*Signal{},
		newID:     uuid.New,
	}
}

// Raise returns the signal registered for msg, creating it on first use.
// The kind of an existing signal is never replaced.
func (r *Registry) Raise(kind error, msg string) *Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byMessage[msg]; ok {
		return s
	}
	s := &Signal{ID: r.newID(), Message: msg, kind: kind}
	r.byMessage[msg] = s
	r.byID[s.ID] = s
	return s
}

// Raisef formats msg before raising it.
func (r *Registry) Raisef(kind error, format string, args ...any) *Signal {
	return r.Raise(kind, fmt.Sprintf(format, args...))
}

func (r *Registry) Lookup(id uuid.UUID) (*Signal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *Registry) ByMessage(msg string) (*Signal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byMessage[msg]
	return s, ok
}

// Len reports the number of distinct messages raised so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byMessage)
}
