// Package fault defines the error kinds shared across the text pipeline.
//
// Pipeline functions degrade to sentinel results (zero confidence, empty
// suggestion) for well-formed input; only structurally invalid input or a
// failed transform produces an Error. Every Error carries a stable kind so
// callers at the command boundary can log and report without inspecting
// message text.
package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the class of a pipeline error.
type Kind string

const (
	// KindValidation marks malformed or missing required input.
	KindValidation Kind = "validation"
	// KindProcessing marks a transform failure during formatting or
	// chunking fallback exhaustion.
	KindProcessing Kind = "processing"
	// KindConfiguration marks bad threshold values, e.g. a non-positive
	// chunk size.
	KindConfiguration Kind = "configuration"
)

// Error is the structured error carried across package boundaries.
type Error struct {
	Kind      Kind
	Code      string // optional machine-readable code, e.g. "empty_input"
	Details   string
	Timestamp time.Time
	Err       error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Details)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind. This lets
// callers use errors.Is(err, &Error{Kind: KindValidation}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// New creates an Error of the given kind.
func New(kind Kind, code, details string) *Error {
	return &Error{Kind: kind, Code: code, Details: details, Timestamp: time.Now()}
}

// Wrap creates an Error of the given kind around a cause.
func Wrap(kind Kind, code, details string, err error) *Error {
	return &Error{Kind: kind, Code: code, Details: details, Timestamp: time.Now(), Err: err}
}

// Validation creates a validation-kind error.
func Validation(code, details string) *Error {
	return New(KindValidation, code, details)
}

// Processing creates a processing-kind error wrapping a cause.
func Processing(code, details string, err error) *Error {
	return Wrap(KindProcessing, code, details, err)
}

// Configuration creates a configuration-kind error.
func Configuration(code, details string) *Error {
	return New(KindConfiguration, code, details)
}

// KindOf returns the kind of err if it is (or wraps) an *Error, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
