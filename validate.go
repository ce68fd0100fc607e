package procz

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// StageValidation is the step name recorded when the validation stage runs.
const StageValidation = Name("validation")

// DefaultValidationDelay models the latency of a real validation pass.
// Validation is never instantaneous; callers sizing timeouts must account
// for it.
const DefaultValidationDelay = 50 * time.Millisecond

// ValidationStage normalizes and accepts input values.
//
// Rules, applied in order:
//   - nil input is rejected with a ValidationError
//   - string input is decoded as JSON; a decode failure is a ParsingError
//     carrying the decoder's diagnostic, a success yields the decoded value
//   - every other value shape passes through unchanged
//
// The stage waits a fixed delay before inspecting the input to model real
// validation cost. The delay is served by an injectable clock so tests can
// use a fake.
//
// Example:
//
//	validated, err := procz.NewValidationStage().Process(ctx, `{"a":1}`)
//	// validated == map[string]any{"a": float64(1)}
type ValidationStage struct {
	clock clockz.Clock
	delay time.Duration
	mu    sync.RWMutex
}

// NewValidationStage creates a ValidationStage with the default delay.
func NewValidationStage() *ValidationStage {
	return &ValidationStage{
		delay: DefaultValidationDelay,
	}
}

// Process implements the Stage interface.
func (v *ValidationStage) Process(ctx context.Context, data any) (any, error) {
	v.mu.RLock()
	delay := v.delay
	clock := v.getClock()
	v.mu.RUnlock()

	select {
	case <-clock.After(delay):
	case <-ctx.Done():
		return data, ctx.Err()
	}

	if data == nil {
		return nil, NewValidationError("data cannot be nil")
	}

	if raw, ok := data.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil, NewParsingError("failed to parse string data as JSON", err)
		}
		return decoded, nil
	}

	return data, nil
}

// Name returns the name of this stage.
func (*ValidationStage) Name() Name {
	return StageValidation
}

// WithDelay overrides the simulated validation latency.
func (v *ValidationStage) WithDelay(d time.Duration) *ValidationStage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.delay = d
	return v
}

// WithClock sets a custom clock for testing.
func (v *ValidationStage) WithClock(clock clockz.Clock) *ValidationStage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clock = clock
	return v
}

// getClock returns the clock to use. Callers must hold at least a read
// lock.
func (v *ValidationStage) getClock() clockz.Clock {
	if v.clock == nil {
		return clockz.RealClock
	}
	return v.clock
}
