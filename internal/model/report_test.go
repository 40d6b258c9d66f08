package model

import (
	"errors"
	"net/http"
	"testing"
)

// TestAuditReport tests report helpers.
func TestAuditReport(t *testing.T) {
	t.Parallel()

	t.Run("starts in Start state", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("example.com")
		if r.State != StateStart {
			t.Errorf("expected Start, got %s", r.State)
		}
		if r.Succeeded() {
			t.Error("new report should not be successful")
		}
	})

	t.Run("records error message", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("example.com")
		r.SetError(errors.New("no robots.txt"))
		if r.ErrorMessage != "no robots.txt" {
			t.Errorf("unexpected message %q", r.ErrorMessage)
		}
	})

	t.Run("fills verification error messages", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("example.com")
		r.AddVerification(VerifierSummary{Engine: "search", Err: errors.New("blocked")})

		if len(r.Verifications) != 1 || r.Verifications[0].Engine != "search" {
			t.Fatalf("unexpected verifications %+v", r.Verifications)
		}
		if r.Verifications[0].ErrorMessage != "blocked" {
			t.Errorf("expected error message to be filled, got %q", r.Verifications[0].ErrorMessage)
		}
	})

	t.Run("available outcomes are sorted", func(t *testing.T) {
		t.Parallel()

		r := NewAuditReport("example.com")
		r.Outcomes = []ProbeOutcome{
			NewProbeOutcome("z", "u", http.StatusOK),
			NewProbeOutcome("m", "u", http.StatusForbidden),
			NewProbeOutcome("a", "u", http.StatusOK),
		}

		got := r.AvailableOutcomes()
		if len(got) != 2 || got[0].Path != "a" || got[1].Path != "z" {
			t.Errorf("unexpected outcomes %+v", got)
		}
	})
}

// TestState tests state names and terminal detection.
func TestState(t *testing.T) {
	t.Parallel()

	if StateFailedRobotsFetch.String() != "FailedRobotsFetch" {
		t.Errorf("unexpected name %q", StateFailedRobotsFetch.String())
	}
	if !StateSuccess.Terminal() || !StateFailedRobotsFetch.Terminal() {
		t.Error("expected terminal states")
	}
	if StateProbePaths.Terminal() {
		t.Error("ProbePaths is not terminal")
	}
	if State(99).String() != "Unknown" {
		t.Error("expected Unknown for out-of-range state")
	}
}
