package procz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the Executor.
const (
	// Metrics.
	ExecutorProcessedTotal = metricz.Key("executor.processed.total")
	ExecutorCompletedTotal = metricz.Key("executor.completed.total")
	ExecutorFailedTotal    = metricz.Key("executor.failed.total")
	ExecutorTimedOutTotal  = metricz.Key("executor.timedout.total")
	ExecutorDurationMs     = metricz.Key("executor.duration.ms")

	// Spans.
	ExecutorProcessSpan = tracez.Key("executor.process")

	// Tags.
	ExecutorTagProcessID = tracez.Tag("executor.process_id")
	ExecutorTagState     = tracez.Tag("executor.state")
	ExecutorTagError     = tracez.Tag("executor.error")

	// Hook event keys.
	ExecutorEventCompleted = hookz.Key("executor.completed")
	ExecutorEventFailed    = hookz.Key("executor.failed")
	ExecutorEventTimedOut  = hookz.Key("executor.timed_out")
)

// State is the lifecycle state of a single invocation. Every invocation
// moves pending -> running -> exactly one of the terminal states.
type State string

// Invocation states.
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Options controls which stages run and how long the caller waits.
type Options struct {
	// Validate enables the validation stage.
	Validate bool
	// Transform enables the transformation stage.
	Transform bool
	// Timeout bounds the foreground wait. Zero or negative means the
	// deadline is already exceeded: the worker is still dispatched, then
	// immediately abandoned.
	Timeout time.Duration
}

// Metadata describes how a result was produced.
type Metadata struct {
	// ProcessingTime is elapsed wall-clock time in seconds, measured from
	// dispatch to worker completion.
	ProcessingTime float64 `json:"processing_time"`
	// Timestamp is the completion time, RFC 3339.
	Timestamp string `json:"timestamp"`
	// Steps lists the stages that actually ran, in execution order.
	Steps []string `json:"steps"`
}

// Result is the success outcome of one invocation. It is constructed fresh
// per invocation and shares no state with any other.
type Result[T any] struct {
	ID            string   `json:"id"`
	OriginalData  T        `json:"original_data"`
	ProcessedData T        `json:"processed_data"`
	Metadata      Metadata `json:"metadata"`
}

// ProcessEvent represents an invocation lifecycle event.
// This is emitted via hookz when an invocation reaches a terminal state,
// allowing external systems to monitor outcomes without touching the
// processing path.
type ProcessEvent struct {
	Name      Name          // Executor name
	ProcessID string        // Per-invocation identifier
	State     State         // Terminal state reached
	Steps     []string      // Stages recorded before the terminal state
	InputData any           // The original input
	Error     error         // The failure, if any
	Duration  time.Duration // Elapsed wall-clock time
	Timestamp time.Time     // When the event occurred
}

// outcome is the single-use result slot a worker fills exactly once.
type outcome[T any] struct {
	result *Result[T]
	err    error
	steps  []string
}

// Executor runs a validate/transform pipeline under a wall-clock deadline.
//
// Each Process call dispatches one worker goroutine and waits for it up to
// Options.Timeout. The worker runs validation then transformation, records
// the step log, and captures any stage failure instead of panicking across
// the goroutine boundary. The caller observes exactly one outcome:
//   - the worker's result, when it finishes in time
//   - the worker's failure, re-raised with kind and context intact
//   - a TimeoutError, when the deadline fires first
//
// On timeout the worker is NOT canceled. It is abandoned to finish in the
// background and its eventual outcome is discarded; it may keep consuming
// resources after Process returns. This is a deliberate contract: callers
// get at most one outcome per invocation, not a promise that work stops
// promptly.
//
// Executor is stateless across invocations and safe for concurrent use.
// The stages themselves can be swapped at runtime via SetValidator and
// SetTransformer.
//
// # Observability
//
// Metrics:
//   - executor.processed.total: Counter of invocations
//   - executor.completed.total: Counter of successful completions
//   - executor.failed.total: Counter of pipeline failures
//   - executor.timedout.total: Counter of deadline expiries
//   - executor.duration.ms: Gauge of the last invocation's duration
//
// Traces:
//   - executor.process: Span covering the foreground wait
//
// Events (via hooks):
//   - executor.completed, executor.failed, executor.timed_out
//
// Example:
//
//	exec := procz.NewExecutor("ingest")
//	exec.OnTimedOut(func(_ context.Context, e procz.ProcessEvent) error {
//	    log.Printf("abandoned worker for %s after %v", e.ProcessID, e.Duration)
//	    return nil
//	})
type Executor[T any] struct {
	validator   Stage[T]
	transformer Stage[T]
	clock       clockz.Clock
	name        Name
	mu          sync.RWMutex
	metrics     *metricz.Registry
	tracer      *tracez.Tracer
	hooks       *hookz.Hooks[ProcessEvent]
}

// NewExecutor creates an Executor for dynamic JSON-shaped values using the
// built-in validation and transformation stages.
func NewExecutor(name Name) *Executor[any] {
	return NewExecutorWith[any](name, NewValidationStage(), NewTransformationStage())
}

// NewExecutorWith creates an Executor with custom stages. Either stage may
// still be skipped per invocation through Options.
func NewExecutorWith[T any](name Name, validator, transformer Stage[T]) *Executor[T] {
	// Initialize observability
	metrics := metricz.New()
	metrics.Counter(ExecutorProcessedTotal)
	metrics.Counter(ExecutorCompletedTotal)
	metrics.Counter(ExecutorFailedTotal)
	metrics.Counter(ExecutorTimedOutTotal)
	metrics.Gauge(ExecutorDurationMs)

	return &Executor[T]{
		name:        name,
		validator:   validator,
		transformer: transformer,
		metrics:     metrics,
		tracer:      tracez.New(),
		hooks:       hookz.New[ProcessEvent](),
	}
}

// Process runs the pipeline on data and waits up to opts.Timeout for the
// worker to finish. See the Executor documentation for the outcome
// contract.
func (e *Executor[T]) Process(ctx context.Context, data T, opts Options) (result *Result[T], err error) {
	e.mu.RLock()
	validator := e.validator
	transformer := e.transformer
	clock := e.getClock()
	e.mu.RUnlock()

	// Handle nil context
	if ctx == nil {
		ctx = context.Background()
	}

	e.metrics.Counter(ExecutorProcessedTotal).Inc()
	start := clock.Now()
	processID := fmt.Sprintf("process-%d-%s", start.Unix(), uuid.NewString())
	state := StatePending

	ctx, span := e.tracer.StartSpan(ctx, ExecutorProcessSpan)
	span.SetTag(ExecutorTagProcessID, processID)
	defer func() {
		elapsed := clock.Since(start)
		e.metrics.Gauge(ExecutorDurationMs).Set(float64(elapsed.Milliseconds()))
		span.SetTag(ExecutorTagState, string(state))
		if err != nil {
			span.SetTag(ExecutorTagError, err.Error())
		}
		span.Finish()
	}()

	capitan.Info(ctx, SignalProcessStarted,
		FieldName.Field(string(e.name)),
		FieldProcessID.Field(processID),
		FieldState.Field(string(state)),
		FieldTimeout.Field(opts.Timeout.Seconds()),
		FieldTimestamp.Field(float64(start.Unix())),
	)

	// Buffered so the worker's single write never blocks. After a timeout
	// the foreground stops listening and the value sits here unread.
	done := make(chan outcome[T], 1)

	go func() {
		var o outcome[T]
		defer func() {
			if r := recover(); r != nil {
				o.result = nil
				o.err = NewError(KindUnexpected, fmt.Sprintf("pipeline panicked: %v", r))
			}
			done <- o
		}()

		steps := make([]string, 0, 2)
		processed := data

		if opts.Validate {
			steps = append(steps, string(validator.Name()))
			o.steps = steps
			out, verr := validator.Process(ctx, processed)
			if verr != nil {
				o.err = verr
				return
			}
			processed = out
		}

		if opts.Transform {
			steps = append(steps, string(transformer.Name()))
			o.steps = steps
			out, terr := transformer.Process(ctx, processed)
			if terr != nil {
				o.err = terr
				return
			}
			processed = out
		}

		finish := clock.Now()
		o.result = &Result[T]{
			ID:            processID,
			OriginalData:  data,
			ProcessedData: processed,
			Metadata: Metadata{
				ProcessingTime: finish.Sub(start).Seconds(),
				Timestamp:      finish.Format(time.RFC3339Nano),
				Steps:          steps,
			},
		}
	}()
	state = StateRunning

	if opts.Timeout <= 0 {
		// Deadline already exceeded. The worker was still dispatched; it is
		// abandoned without ever being consulted.
		state = StateTimedOut
		return nil, e.timedOut(ctx, processID, nil, opts.Timeout, clock.Since(start), data)
	}

	select {
	case o := <-done:
		elapsed := clock.Since(start)
		if o.err != nil {
			state = StateFailed
			e.metrics.Counter(ExecutorFailedTotal).Inc()
			capitan.Error(ctx, SignalProcessFailed,
				FieldName.Field(string(e.name)),
				FieldProcessID.Field(processID),
				FieldState.Field(string(StateFailed)),
				FieldError.Field(o.err.Error()),
				FieldDuration.Field(elapsed.Seconds()),
			)
			_ = e.hooks.Emit(ctx, ExecutorEventFailed, ProcessEvent{ //nolint:errcheck
				Name:      e.name,
				ProcessID: processID,
				State:     StateFailed,
				Steps:     o.steps,
				InputData: data,
				Error:     o.err,
				Duration:  elapsed,
				Timestamp: clock.Now(),
			})
			return nil, o.err
		}

		state = StateCompleted
		e.metrics.Counter(ExecutorCompletedTotal).Inc()
		capitan.Info(ctx, SignalProcessCompleted,
			FieldName.Field(string(e.name)),
			FieldProcessID.Field(processID),
			FieldState.Field(string(StateCompleted)),
			FieldSteps.Field(len(o.result.Metadata.Steps)),
			FieldDuration.Field(elapsed.Seconds()),
		)
		_ = e.hooks.Emit(ctx, ExecutorEventCompleted, ProcessEvent{ //nolint:errcheck
			Name:      e.name,
			ProcessID: processID,
			State:     StateCompleted,
			Steps:     o.result.Metadata.Steps,
			InputData: data,
			Duration:  elapsed,
			Timestamp: clock.Now(),
		})
		return o.result, nil

	case <-clock.After(opts.Timeout):
		state = StateTimedOut
		return nil, e.timedOut(ctx, processID, nil, opts.Timeout, clock.Since(start), data)
	}
}

// timedOut builds the TimeoutError and emits the timeout telemetry. The
// worker keeps running; only what the foreground reports changes.
func (e *Executor[T]) timedOut(ctx context.Context, processID string, steps []string, timeout, elapsed time.Duration, data T) error {
	terr := NewTimeoutError(fmt.Sprintf("processing timed out after %v", timeout)).
		WithContext("timeout_seconds", timeout.Seconds()).
		WithContext("process_id", processID)

	e.metrics.Counter(ExecutorTimedOutTotal).Inc()
	capitan.Error(ctx, SignalProcessTimedOut,
		FieldName.Field(string(e.name)),
		FieldProcessID.Field(processID),
		FieldState.Field(string(StateTimedOut)),
		FieldTimeout.Field(timeout.Seconds()),
		FieldDuration.Field(elapsed.Seconds()),
	)
	_ = e.hooks.Emit(ctx, ExecutorEventTimedOut, ProcessEvent{ //nolint:errcheck
		Name:      e.name,
		ProcessID: processID,
		State:     StateTimedOut,
		Steps:     steps,
		InputData: data,
		Error:     terr,
		Duration:  elapsed,
		Timestamp: e.getClock().Now(),
	})
	return terr
}

// SetValidator replaces the validation stage.
func (e *Executor[T]) SetValidator(s Stage[T]) *Executor[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validator = s
	return e
}

// SetTransformer replaces the transformation stage.
func (e *Executor[T]) SetTransformer(s Stage[T]) *Executor[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transformer = s
	return e
}

// WithClock sets a custom clock for testing.
func (e *Executor[T]) WithClock(clock clockz.Clock) *Executor[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = clock
	return e
}

// getClock returns the clock to use.
func (e *Executor[T]) getClock() clockz.Clock {
	if e.clock == nil {
		return clockz.RealClock
	}
	return e.clock
}

// Name returns the name of this executor.
func (e *Executor[T]) Name() Name {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.name
}

// Metrics returns the metrics registry for this executor.
func (e *Executor[T]) Metrics() *metricz.Registry {
	return e.metrics
}

// Tracer returns the tracer for this executor.
func (e *Executor[T]) Tracer() *tracez.Tracer {
	return e.tracer
}

// Close gracefully shuts down observability components.
func (e *Executor[T]) Close() error {
	if e.tracer != nil {
		e.tracer.Close()
	}
	e.hooks.Close()
	return nil
}

// OnCompleted registers a handler for successful invocations.
func (e *Executor[T]) OnCompleted(handler func(context.Context, ProcessEvent) error) error {
	_, err := e.hooks.Hook(ExecutorEventCompleted, handler)
	return err
}

// OnFailed registers a handler for invocations whose pipeline failed.
func (e *Executor[T]) OnFailed(handler func(context.Context, ProcessEvent) error) error {
	_, err := e.hooks.Hook(ExecutorEventFailed, handler)
	return err
}

// OnTimedOut registers a handler for invocations abandoned at the deadline.
func (e *Executor[T]) OnTimedOut(handler func(context.Context, ProcessEvent) error) error {
	_, err := e.hooks.Hook(ExecutorEventTimedOut, handler)
	return err
}
