// Package errx provides the error kinds shared by the link store, the shortening
// service and the HTTP layer. Every store and service failure is an *Error carrying
// the operation that failed and one Kind; callers branch on the kind, never on the
// message.
package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// NotFound: no link matches the lookup key. A normal outcome, not a fault.
	NotFound
	// Conflict: a uniqueness constraint rejected an insert.
	Conflict
	// Invalid: caller input failed validation; nothing was written.
	Invalid
	// Exhausted: every allocation attempt collided.
	Exhausted
	// Unavailable: the backing store could not be reached or timed out.
	Unavailable
	Internal
)

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with an operation name and kind. It returns nil for a nil err so
// it can wrap a call result directly.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Wrap re-labels err with a new operation while keeping its kind.
func Wrap(op string, err error) error {
	return E(op, KindOf(err), err)
}

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case Invalid:
		return "Invalid"
	case Exhausted:
		return "Exhausted"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of the outermost *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
