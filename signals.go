package procz

import "github.com/zoobzio/capitan"

// Signal definitions for procz lifecycle events.
// Signals follow the pattern: <component>.<event>.
var (
	// Executor signals.
	SignalProcessStarted = capitan.NewSignal(
		"executor.process-started",
		"Executor dispatched a pipeline worker for one invocation",
	)
	SignalProcessCompleted = capitan.NewSignal(
		"executor.process-completed",
		"Pipeline worker finished successfully within the deadline",
	)
	SignalProcessFailed = capitan.NewSignal(
		"executor.process-failed",
		"Pipeline worker recorded a stage failure before the deadline",
	)
	SignalProcessTimedOut = capitan.NewSignal(
		"executor.process-timed-out",
		"Deadline expired before the pipeline worker finished; worker abandoned",
	)

	// Error taxonomy signals.
	SignalErrorClassified = capitan.NewSignal(
		"errors.classified",
		"A failure was normalized into a reporting record",
	)
)

// Field keys for signal payloads.
var (
	// Common fields.
	FieldName      = capitan.NewStringKey("name")       // Executor instance name
	FieldError     = capitan.NewStringKey("error")      // Error message
	FieldTimestamp = capitan.NewFloat64Key("timestamp") // Unix timestamp

	// Executor fields.
	FieldProcessID = capitan.NewStringKey("process_id") // Per-invocation identifier
	FieldState     = capitan.NewStringKey("state")      // Invocation state at emission
	FieldTimeout   = capitan.NewFloat64Key("timeout")   // Configured timeout in seconds
	FieldDuration  = capitan.NewFloat64Key("duration")  // Elapsed wall-clock seconds
	FieldSteps     = capitan.NewIntKey("steps")         // Number of stages that ran

	// Error taxonomy fields.
	FieldContext = capitan.NewStringKey("context") // Context name passed to Classify
	FieldKind    = capitan.NewStringKey("kind")    // Failure kind
)
