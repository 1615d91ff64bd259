package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestEnvelopeCode(t *testing.T) {
	if got := EnvelopeCode(New(CodeRateLimited, "slow down")); got != "RATE_LIMITED" {
		t.Fatalf("unexpected code: %s", got)
	}
	wrapped := fmt.Errorf("fetch pools: %w", Wrap(CodeUnavailable, "provider timeout", errors.New("i/o")))
	if got := EnvelopeCode(wrapped); got != "UNAVAILABLE" {
		t.Fatalf("expected wrapped typed code, got %s", got)
	}
	if got := EnvelopeCode(errors.New("plain")); got != UnknownCode {
		t.Fatalf("expected %s for untyped error, got %s", UnknownCode, got)
	}
}

func TestExitCodeAndValidation(t *testing.T) {
	err := Validation("Pool ID is required")
	if ExitCode(err) != int(CodeValidation) {
		t.Fatalf("unexpected exit code %d", ExitCode(err))
	}
	if !IsValidation(err) {
		t.Fatal("expected validation error")
	}
	if IsValidation(New(CodeInternal, "x")) {
		t.Fatal("internal error reported as validation")
	}
	if ExitCode(nil) != 0 {
		t.Fatal("expected zero exit code for nil error")
	}
}

func TestCodeFromName(t *testing.T) {
	if c, ok := CodeFromName("VALIDATION_ERROR"); !ok || c != CodeValidation {
		t.Fatalf("unexpected code: %v ok=%v", c, ok)
	}
	if c, ok := CodeFromName(UnknownCode); ok || c != CodeInternal {
		t.Fatalf("expected unknown name to map to internal, got %v ok=%v", c, ok)
	}
}
