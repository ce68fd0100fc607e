package procz

import (
	"fmt"
)

// Kind tags a failure with its position in the processing taxonomy.
// Kinds are stable strings: callers and log pipelines match on them, so new
// kinds may be added but existing values never change.
type Kind string

// The closed set of failure kinds.
const (
	// KindProcessing is the base kind for generic processing failures.
	KindProcessing Kind = "ProcessingError"
	// KindValidation marks input rejected by the validation stage.
	KindValidation Kind = "ValidationError"
	// KindParsing marks an encoded payload that could not be decoded.
	KindParsing Kind = "ParsingError"
	// KindTimeout marks an invocation that exceeded its deadline.
	KindTimeout Kind = "TimeoutError"
	// KindNetwork marks failures reaching an external collaborator.
	KindNetwork Kind = "NetworkError"
	// KindUnexpected is the catch-all for failures outside the taxonomy,
	// applied at the outermost boundary.
	KindUnexpected Kind = "UnexpectedError"
)

// Error is the taxonomy failure type. Every failure surfaced by this
// package carries a non-empty Kind and a human-readable Message; Context
// holds free-form diagnostic entries and defaults to empty.
//
// Error supports the standard wrapping conventions: Unwrap exposes the
// underlying cause (if any) so errors.Is and errors.As work through it.
type Error struct {
	Err     error
	Context map[string]any
	Message string
	Kind    Kind
}

// NewError creates a taxonomy error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: map[string]any{},
	}
}

// NewValidationError creates a ValidationError-kind failure.
func NewValidationError(message string) *Error {
	return NewError(KindValidation, message)
}

// NewParsingError creates a ParsingError-kind failure wrapping the decoder
// diagnostic. The cause is folded into the message so the failure record
// carries the diagnostic verbatim, and kept as Err for errors.Is/As.
func NewParsingError(message string, cause error) *Error {
	err := NewError(KindParsing, fmt.Sprintf("%s: %v", message, cause))
	err.Err = cause
	return err
}

// NewTimeoutError creates a TimeoutError-kind failure.
func NewTimeoutError(message string) *Error {
	return NewError(KindTimeout, message)
}

// NewNetworkError creates a NetworkError-kind failure.
func NewNetworkError(message string) *Error {
	return NewError(KindNetwork, message)
}

// WithContext attaches a diagnostic entry and returns the error for
// chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface. The message already carries any
// cause diagnostics, so it is returned as-is.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, supporting error wrapping patterns.
func (e *Error) Unwrap() error {
	return e.Err
}

// recoverFromPanic converts a panic inside a stage into an
// UnexpectedError-kind failure instead of letting it cross goroutine
// boundaries. Used via defer with named return values.
func recoverFromPanic[T any](result *T, err *error, name Name, _ T) {
	if r := recover(); r != nil {
		var zero T
		*result = zero
		*err = NewError(KindUnexpected, fmt.Sprintf("stage %q panicked: %v", name, r)).
			WithContext("stage", name)
	}
}
