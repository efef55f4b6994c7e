// Package errors provides error classification for prioflow.
//
// Channel construction and operations fail in a small number of well-defined
// ways. Each failure carries a Kind so callers can distinguish bad input
// from primitive failures from internal invariant violations without string
// matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a prioflow failure.
type Kind int

const (
	// KindInvalidArgument indicates bad input at construction time,
	// such as a non-positive capacity. Fatal to construction; no partial
	// channel is left usable.
	KindInvalidArgument Kind = iota

	// KindResourceExhausted indicates an allocation failure at
	// construction time. Treated the same as KindInvalidArgument.
	KindResourceExhausted

	// KindSynchronization indicates an underlying lock or semaphore
	// primitive failed to operate. Fatal at construction; surfaced to the
	// calling worker as an error result mid-operation.
	KindSynchronization

	// KindLogic indicates an internal invariant was violated, e.g. a push
	// reported full immediately after a slot was acquired. Expected
	// unreachable under correct usage; the operation restores the
	// resource count and returns this instead of corrupting state.
	KindLogic
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindSynchronization:
		return "synchronization"
	case KindLogic:
		return "logic"
	default:
		return "unknown"
	}
}

// Error wraps an error with its kind and the operation being attempted.
type Error struct {
	// Err is the underlying error. May be nil when the kind and context
	// say everything there is to say.
	Err error

	// Kind classifies the failure.
	Kind Kind

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Context != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (kind: %s)", e.Context, e.Err, e.Kind)
	case e.Context != "":
		return fmt.Sprintf("%s (kind: %s)", e.Context, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s (kind: %s)", e.Err, e.Kind)
	default:
		return fmt.Sprintf("prioflow error (kind: %s)", e.Kind)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new classified error.
func New(err error, kind Kind, context string) *Error {
	return &Error{
		Err:     err,
		Kind:    kind,
		Context: context,
	}
}

// InvalidArgument creates an invalid-argument error.
func InvalidArgument(err error, context string) *Error {
	return New(err, KindInvalidArgument, context)
}

// ResourceExhausted creates a resource-exhausted error.
func ResourceExhausted(err error, context string) *Error {
	return New(err, KindResourceExhausted, context)
}

// Synchronization creates a synchronization-primitive error.
func Synchronization(err error, context string) *Error {
	return New(err, KindSynchronization, context)
}

// Logic creates an internal-invariant error.
func Logic(err error, context string) *Error {
	return New(err, KindLogic, context)
}

// KindOf returns the kind of an error, unwrapping as needed.
// Unclassified errors report KindSynchronization: the only anonymous
// failures in this package come from the underlying primitives.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindSynchronization
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}
