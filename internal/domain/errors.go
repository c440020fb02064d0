package domain

import "errors"

// Failure kinds. Every failure raised by this package is a *signal.Signal
// that unwraps to one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrUnknownField = errors.New("unknown field")
	ErrState        = errors.New("state error")
	ErrRange        = errors.New("range error")
	ErrInvalidRange = errors.New("invalid range")
	ErrInvalidState = errors.New("invalid state")
)

// KindOf returns the failure kind of err, or nil when err is not one of ours.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrTypeMismatch, ErrUnknownField, ErrState, ErrRange, ErrInvalidRange, ErrInvalidState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
