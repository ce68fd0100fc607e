package procz

import (
	"context"
)

// Name identifies stages and executors in logs, signals, and failure
// records. Using a dedicated alias keeps call sites honest about what the
// string is for.
type Name = string

// Stage defines the interface for one step of the processing pipeline.
// Every stage receives the output of the previous stage and either returns
// a (possibly new) value or an error that stops the pipeline immediately.
//
// Stage is deliberately minimal so that validation, transformation, and
// ad-hoc test stages compose through the same contract:
//   - Single method plus a name for diagnostics
//   - Context support for deadline-aware implementations
//   - Explicit error returns for fail-fast behavior
type Stage[T any] interface {
	Process(context.Context, T) (T, error)
	Name() Name
}

// stage is the value type produced by Apply. Stages built this way are
// immutable: a name and a function, nothing else.
type stage[T any] struct {
	fn   func(context.Context, T) (T, error)
	name Name
}

// Apply wraps a function as a Stage. Use it for inline stages in tests or
// for pipelines that need a step the built-in stages don't cover.
//
// Panics inside fn are captured and surfaced as an UnexpectedError-kind
// failure rather than crossing goroutine boundaries.
//
// Example:
//
//	upper := procz.Apply("upper", func(_ context.Context, s any) (any, error) {
//	    if str, ok := s.(string); ok {
//	        return strings.ToUpper(str), nil
//	    }
//	    return s, nil
//	})
func Apply[T any](name Name, fn func(context.Context, T) (T, error)) Stage[T] {
	return stage[T]{name: name, fn: fn}
}

// Process implements the Stage interface.
func (s stage[T]) Process(ctx context.Context, data T) (result T, err error) {
	defer recoverFromPanic(&result, &err, s.name, data)
	return s.fn(ctx, data)
}

// Name returns the name of this stage.
func (s stage[T]) Name() Name {
	return s.name
}
