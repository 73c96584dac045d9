package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "synthesis", "segment", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"synthesis", "segment", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestDetailsExtractsStructuredFields(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrInsufficientResearch, "research", "aggregate", "2 citations below minimum 3", base)

	details := services.Details(err)
	if details.Kind != services.KindInsufficientResearch {
		t.Fatalf("unexpected kind: %s", details.Kind)
	}
	if details.Stage != "research" || details.Operation != "aggregate" {
		t.Fatalf("unexpected stage/operation: %s/%s", details.Stage, details.Operation)
	}
	if !strings.Contains(details.Message, "below minimum") {
		t.Fatalf("unexpected message: %q", details.Message)
	}
	if details.Hint == "" {
		t.Fatal("expected a hint for a domain failure kind")
	}
	if details.Cause == nil || !errors.Is(details.Cause, base) {
		t.Fatalf("unexpected cause: %v", details.Cause)
	}
}

func TestDetailsUnwrappedError(t *testing.T) {
	details := services.Details(errors.New("plain failure"))
	if details.Kind != services.KindUnknown {
		t.Fatalf("unexpected kind for plain error: %s", details.Kind)
	}
	if details.Message != "plain failure" {
		t.Fatalf("unexpected message: %q", details.Message)
	}
}

func TestKindOfMarkers(t *testing.T) {
	cases := []struct {
		name   string
		marker error
		want   services.ErrorKind
	}{
		{"insufficient research", services.ErrInsufficientResearch, services.KindInsufficientResearch},
		{"draft generation", services.ErrDraftGenerationFailed, services.KindDraftGenerationFailed},
		{"name allocation", services.ErrNameAllocationConflict, services.KindNameAllocation},
		{"synthesis segment", services.ErrSynthesisSegmentFailed, services.KindSynthesisSegment},
		{"synthesis timeout", services.ErrSynthesisTimeout, services.KindSynthesisTimeout},
		{"catalog sync", services.ErrCatalogSyncConflict, services.KindCatalogSync},
		{"validation", services.ErrValidation, services.KindValidation},
		{"configuration", services.ErrConfiguration, services.KindConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := services.Wrap(tc.marker, "stage", "op", "msg", nil)
			if got := services.KindOf(wrapped); got != tc.want {
				t.Fatalf("KindOf(%v) = %s, want %s", tc.marker, got, tc.want)
			}
		})
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "research", "fetch", "provider unavailable", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}
