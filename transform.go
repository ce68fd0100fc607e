package procz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// StageTransformation is the step name recorded when the transformation
// stage runs.
const StageTransformation = Name("transformation")

// DefaultTransformationDelay models the latency of a real transformation
// pass. Deliberately longer than validation's.
const DefaultTransformationDelay = 100 * time.Millisecond

// TransformationStage applies a uniform annotation to record-shaped values.
//
// Rules:
//   - an ordered sequence ([]any): every record element (map[string]any)
//     is replaced by a copy carrying two extra fields, transformed: true and
//     timestamp: <capture time, RFC 3339>; non-record elements pass through;
//     order and length are preserved
//   - a single record (map[string]any): same augmentation, on a copy — the
//     original map is never mutated
//   - any other value shape passes through unchanged
//
// The stage never fails under this contract. Like validation, it waits a
// fixed delay on an injectable clock to model real transformation cost.
type TransformationStage struct {
	clock clockz.Clock
	delay time.Duration
	mu    sync.RWMutex
}

// NewTransformationStage creates a TransformationStage with the default
// delay.
func NewTransformationStage() *TransformationStage {
	return &TransformationStage{
		delay: DefaultTransformationDelay,
	}
}

// Process implements the Stage interface.
func (t *TransformationStage) Process(ctx context.Context, data any) (any, error) {
	t.mu.RLock()
	delay := t.delay
	clock := t.getClock()
	t.mu.RUnlock()

	select {
	case <-clock.After(delay):
	case <-ctx.Done():
		return data, ctx.Err()
	}

	stamp := clock.Now().Format(time.RFC3339Nano)

	switch value := data.(type) {
	case []any:
		out := make([]any, len(value))
		for i, element := range value {
			if record, ok := element.(map[string]any); ok {
				out[i] = annotate(record, stamp)
			} else {
				out[i] = element
			}
		}
		return out, nil
	case map[string]any:
		return annotate(value, stamp), nil
	default:
		return data, nil
	}
}

// Name returns the name of this stage.
func (*TransformationStage) Name() Name {
	return StageTransformation
}

// WithDelay overrides the simulated transformation latency.
func (t *TransformationStage) WithDelay(d time.Duration) *TransformationStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
	return t
}

// WithClock sets a custom clock for testing.
func (t *TransformationStage) WithClock(clock clockz.Clock) *TransformationStage {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clock = clock
	return t
}

// getClock returns the clock to use.
func (t *TransformationStage) getClock() clockz.Clock {
	if t.clock == nil {
		return clockz.RealClock
	}
	return t.clock
}

// annotate copies a record and adds the transformation markers. The input
// record is left untouched.
func annotate(record map[string]any, stamp string) map[string]any {
	out := make(map[string]any, len(record)+2)
	for k, v := range record {
		out[k] = v
	}
	out["transformed"] = true
	out["timestamp"] = stamp
	return out
}
