// Package procz provides a timeout-bounded execution engine for small
// data-processing pipelines.
//
// # Overview
//
// procz runs a validate/transform pipeline against an arbitrary input value
// under a hard wall-clock deadline. The pipeline executes on its own worker
// goroutine while the caller waits on a bounded select, so every invocation
// resolves to exactly one of three outcomes: a success result, a classified
// pipeline failure, or a timeout failure.
//
// # Core Concepts
//
// Stages implement a single, uniform interface:
//
//	type Stage[T any] interface {
//	    Process(context.Context, T) (T, error)
//	    Name() Name
//	}
//
// Key components:
//   - ValidationStage: rejects nil input and decodes JSON string payloads
//   - TransformationStage: annotates record-shaped values, passes the rest through
//   - Executor: races the stage pipeline against a deadline and reports one outcome
//   - Error/Classify: a closed taxonomy of failure kinds with a uniform
//     reporting record
//
// The Executor never cancels its worker. When the deadline fires the worker
// is abandoned: it may keep running in the background, and its eventual
// outcome is discarded rather than delivered to the caller. Callers that
// need bounded resource use must size timeouts against stage latency.
//
// # Quick Start
//
//	exec := procz.NewExecutor("orders")
//	result, err := exec.Process(ctx, `{"a":1}`, procz.Options{
//	    Validate:  true,
//	    Transform: true,
//	    Timeout:   5 * time.Second,
//	})
//	if err != nil {
//	    var perr *procz.Error
//	    if errors.As(err, &perr) && perr.Kind == procz.KindTimeout {
//	        // deadline exceeded; the worker was abandoned
//	    }
//	}
//
// For a boundary that never lets an error escape, use Run, which folds any
// outcome into an Envelope suitable for serialization.
//
// # Observability
//
// Connector-level metrics, spans, and hook events follow the usual zoobzio
// stack (metricz, tracez, hookz), and lifecycle signals are emitted through
// capitan. The package never configures a log sink itself; hosts hook the
// signals they care about.
package procz
