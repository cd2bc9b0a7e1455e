package cross

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes compilation errors.
type ErrorKind uint8

const (
	// ErrInvalidInput indicates malformed or inconsistent IR.
	ErrInvalidInput ErrorKind = iota

	// ErrUnsupportedInput indicates well-formed IR using a combination the
	// selected backend has no legalization strategy for.
	ErrUnsupportedInput

	// ErrAllocationFailure indicates an allocation could not be satisfied.
	ErrAllocationFailure

	// ErrInvalidArgument indicates a caller error: unknown entry point,
	// option not supported by the backend, bad handle.
	ErrInvalidArgument

	// ErrInternal indicates a broken internal invariant, such as the
	// recompilation loop failing to converge.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrUnsupportedInput:
		return "UnsupportedInput"
	case ErrAllocationFailure:
		return "AllocationFailure"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Error is a categorized compilation error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a new error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Unsupported creates an ErrUnsupportedInput error.
func Unsupported(format string, args ...any) *Error {
	return Errorf(ErrUnsupportedInput, format, args...)
}

// Invalid creates an ErrInvalidInput error.
func Invalid(format string, args ...any) *Error {
	return Errorf(ErrInvalidInput, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// carry no kind report ErrInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
