package procz

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestTransformationStage(t *testing.T) {
	stage := NewTransformationStage().WithDelay(time.Millisecond)

	t.Run("Annotates Record", func(t *testing.T) {
		original := map[string]any{"a": 1}
		out, err := stage.Process(context.Background(), original)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record, ok := out.(map[string]any)
		if !ok {
			t.Fatalf("expected map output, got %T", out)
		}
		if record["a"] != 1 {
			t.Errorf("original keys must survive, got %v", record)
		}
		if record["transformed"] != true {
			t.Errorf("expected transformed marker, got %v", record)
		}
		stamp, ok := record["timestamp"].(string)
		if !ok {
			t.Fatalf("expected timestamp string, got %v", record["timestamp"])
		}
		if _, err := time.Parse(time.RFC3339Nano, stamp); err != nil {
			t.Errorf("timestamp not parseable: %v", err)
		}

		// Non-destructive: the input record is untouched
		if _, exists := original["transformed"]; exists {
			t.Error("input record must not be mutated")
		}
	})

	t.Run("Annotates Records In Sequence", func(t *testing.T) {
		input := []any{map[string]any{"a": 1}, "x"}
		out, err := stage.Process(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seq, ok := out.([]any)
		if !ok {
			t.Fatalf("expected slice output, got %T", out)
		}
		if len(seq) != 2 {
			t.Fatalf("length must be preserved, got %d", len(seq))
		}

		first, ok := seq[0].(map[string]any)
		if !ok {
			t.Fatalf("expected record first, got %T", seq[0])
		}
		if first["transformed"] != true || first["a"] != 1 {
			t.Errorf("first element not annotated: %v", first)
		}
		if seq[1] != "x" {
			t.Errorf("non-record element must pass through, got %v", seq[1])
		}
	})

	t.Run("Scalars Pass Through", func(t *testing.T) {
		out, err := stage.Process(context.Background(), 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != 42 {
			t.Errorf("expected pass-through, got %v", out)
		}

		out, err = stage.Process(context.Background(), "plain")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "plain" {
			t.Errorf("expected pass-through, got %v", out)
		}
	})

	t.Run("Empty Sequence", func(t *testing.T) {
		out, err := stage.Process(context.Background(), []any{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(out, []any{}) {
			t.Errorf("expected empty sequence, got %v", out)
		}
	})

	t.Run("Name", func(t *testing.T) {
		if stage.Name() != StageTransformation {
			t.Errorf("unexpected name %q", stage.Name())
		}
	})
}
