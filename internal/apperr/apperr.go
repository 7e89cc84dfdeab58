package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping. The set is closed; every
// failure a service returns carries exactly one kind.
type Kind int

const (
	// Internal is an unclassified failure (DB error, bug). Default kind.
	Internal Kind = iota
	// Unauthenticated means the caller has no valid identity.
	Unauthenticated
	// Unauthorized means the caller is known but not a party to the resource.
	Unauthorized
	// NotFound means the target row does not exist or is soft-deleted.
	NotFound
	// InvalidState means the operation is not legal in the entity's current status.
	InvalidState
	// QuantityExceeded means a deal would overrun a listing's remaining quantity.
	QuantityExceeded
	// Validation means the input itself is malformed or out of range.
	Validation
	// Conflict means a uniqueness or already-done rule was violated.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case QuantityExceeded:
		return "quantity_exceeded"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Internal if err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
