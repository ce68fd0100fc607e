package procz

import (
	"context"
	"errors"
	"time"
)

// Envelope is the outermost reporting surface: exactly one of Result or
// Error is set, and serialization never exposes a raw Go error.
type Envelope[T any] struct {
	Result    *Result[T] `json:"result,omitempty"`
	Error     *Record    `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
	Success   bool       `json:"success"`
}

// Run invokes the executor and folds the outcome into an Envelope. No error
// escapes this boundary: taxonomy failures are classified under their own
// kind, anything else is wrapped as UnexpectedError first. contextName
// labels the failure record with where the invocation originated.
func Run[T any](ctx context.Context, exec *Executor[T], data T, opts Options, contextName string) Envelope[T] {
	result, err := exec.Process(ctx, data, opts)
	stamp := exec.getClock().Now().Format(time.RFC3339Nano)

	if err == nil {
		return Envelope[T]{
			Success:   true,
			Result:    result,
			Timestamp: stamp,
		}
	}

	var perr *Error
	if !errors.As(err, &perr) {
		err = NewError(KindUnexpected, err.Error())
	}
	record := Classify(ctx, err, contextName)

	return Envelope[T]{
		Success:   false,
		Error:     &record,
		Timestamp: stamp,
	}
}
