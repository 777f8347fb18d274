package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"voicereel/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "assembling", "concat", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"assembling", "concat", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureReasonMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: services.Wrap(services.ErrValidation, "validating", "", "text required", nil), want: "invalid_input"},
		{name: "exhausted", err: services.Wrap(services.ErrNoEligibleCredential, "synthesizing", "chunk 3", "", nil), want: "credentials_exhausted"},
		{name: "assembly", err: services.Wrap(services.ErrAssembly, "assembling", "", "", errors.New("x")), want: "assembly_failed"},
		{name: "canceled", err: fmt.Errorf("run: %w", context.Canceled), want: "canceled"},
		{name: "other", err: errors.New("io"), want: "failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureReason(tc.err); got != tc.want {
				t.Fatalf("FailureReason() = %q, want %q", got, tc.want)
			}
		})
	}
}
