package services_test

import (
	"context"
	"testing"

	"vocalprep/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithPhase(ctx, "segmentation")
	ctx = services.WithInput(ctx, "interview.wav")
	ctx = services.WithSegment(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if phase, ok := services.PhaseFromContext(ctx); !ok || phase != "segmentation" {
		t.Fatalf("unexpected phase: %v %v", phase, ok)
	}
	if input, ok := services.InputFromContext(ctx); !ok || input != "interview.wav" {
		t.Fatalf("unexpected input: %v %v", input, ok)
	}
	if seg, ok := services.SegmentFromContext(ctx); !ok || seg != 3 {
		t.Fatalf("unexpected segment: %v %v", seg, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithPhase(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithSegment(ctx, 0)
	if _, ok := services.PhaseFromContext(ctx); ok {
		t.Fatal("expected no phase value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.SegmentFromContext(ctx); ok {
		t.Fatal("expected no segment value")
	}
}
