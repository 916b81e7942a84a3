package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so transport layers can map them to status codes
// without string-matching messages.
type Kind int

const (
	// Validation: missing or malformed input. Never retried.
	Validation Kind = iota + 1
	// NotFound: a referenced record does not exist.
	NotFound
	// Conflict: the operation clashes with existing state (duplicate email,
	// already registered, already voted).
	Conflict
	// State: a precondition on derived state failed (election not active,
	// candidate not approved, voter not verified).
	State
	// ExternalDependency: a collaborator (mail, photo storage) failed; any
	// partial state was rolled back.
	ExternalDependency
	// Integrity: a structural invariant would have been broken; the
	// transaction aborted. Surfaced to callers as a conflict.
	Integrity
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case State:
		return "state"
	case ExternalDependency:
		return "external_dependency"
	case Integrity:
		return "integrity"
	}
	return "unknown"
}

// Error is a kinded application error.
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

// New builds a kinded error. Package-level sentinels built with New compare
// with errors.Is by identity.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a kinded error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and context to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or 0 if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
