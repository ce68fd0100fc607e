package procz

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
)

func TestClassify(t *testing.T) {
	t.Run("Taxonomy Error Keeps Kind And Context", func(t *testing.T) {
		err := NewValidationError("data cannot be nil").WithContext("field", "payload")

		rec := Classify(context.Background(), err, "worker")

		if rec.Kind != KindValidation {
			t.Errorf("expected ValidationError kind, got %q", rec.Kind)
		}
		if rec.Message != "data cannot be nil" {
			t.Errorf("unexpected message: %q", rec.Message)
		}
		if rec.Context != "worker" {
			t.Errorf("expected context name %q, got %q", "worker", rec.Context)
		}
		if rec.Fields["field"] != "payload" {
			t.Errorf("expected context entry to survive, got %v", rec.Fields)
		}
	})

	t.Run("Unknown Error Uses Type Name", func(t *testing.T) {
		rec := Classify(context.Background(), &os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, "main")

		if rec.Kind != "PathError" {
			t.Errorf("expected PathError kind, got %q", rec.Kind)
		}
		if len(rec.Fields) != 0 {
			t.Errorf("expected empty context for unknown error, got %v", rec.Fields)
		}
	})

	t.Run("Plain Error Uses Type Name", func(t *testing.T) {
		rec := Classify(context.Background(), errors.New("boom"), "main")
		if rec.Kind != "errorString" {
			t.Errorf("expected errorString kind, got %q", rec.Kind)
		}
	})

	t.Run("Fixed Fields Win On Collision", func(t *testing.T) {
		err := NewValidationError("real message").
			WithContext("kind", "Imposter").
			WithContext("message", "imposter message").
			WithContext("extra", 42)

		rec := Classify(context.Background(), err, "worker")

		raw, merr := json.Marshal(rec)
		if merr != nil {
			t.Fatalf("marshal failed: %v", merr)
		}
		var flat map[string]any
		if err := json.Unmarshal(raw, &flat); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if flat["kind"] != string(KindValidation) {
			t.Errorf("fixed kind should win, got %v", flat["kind"])
		}
		if flat["message"] != "real message" {
			t.Errorf("fixed message should win, got %v", flat["message"])
		}
		if flat["context"] != "worker" {
			t.Errorf("fixed context should win, got %v", flat["context"])
		}
		if flat["extra"] != float64(42) {
			t.Errorf("non-colliding entries should merge, got %v", flat["extra"])
		}
	})

	t.Run("Emits Exactly One Classification Signal", func(t *testing.T) {
		var mu sync.Mutex
		var count int
		var gotKind, gotContext string

		listener := capitan.Hook(SignalErrorClassified, func(_ context.Context, e *capitan.Event) {
			mu.Lock()
			defer mu.Unlock()
			count++
			gotKind, _ = FieldKind.From(e)
			gotContext, _ = FieldContext.From(e)
		})
		defer listener.Close()

		Classify(context.Background(), NewTimeoutError("too slow"), "executor")

		// Signal delivery is asynchronous
		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		if count != 1 {
			t.Fatalf("expected exactly one signal, got %d", count)
		}
		if gotKind != string(KindTimeout) {
			t.Errorf("expected TimeoutError kind in signal, got %q", gotKind)
		}
		if gotContext != "executor" {
			t.Errorf("expected executor context in signal, got %q", gotContext)
		}
	})
}
