package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

// TestClampScore tests score clamping.
func TestClampScore(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		in       float64
		expected float64
	}{
		{"below zero", -15, 0},
		{"in range", 42.5, 42.5},
		{"above max", 130, 100},
		{"nan", math.NaN(), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClampScore(tc.in); got != tc.expected {
				t.Errorf("ClampScore(%v) = %v, expected %v", tc.in, got, tc.expected)
			}
		})
	}
}

// TestSignalResultConstructors tests the three result shapes.
func TestSignalResultConstructors(t *testing.T) {
	t.Parallel()

	t.Run("success clamps and orders", func(t *testing.T) {
		t.Parallel()

		r := Success(SignalHeuristic, 120, ThreatSuspiciousKeywords, ThreatSuspiciousAt)
		if !r.Usable() {
			t.Fatal("expected success to be usable")
		}
		if r.Score != 100 {
			t.Errorf("Score = %v, expected 100", r.Score)
		}
		if r.Threats[0] != ThreatSuspiciousAt {
			t.Errorf("Threats = %v, expected canonical order", r.Threats)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()

		r := Unavailable(SignalReputation, "timeout")
		if r.Usable() {
			t.Error("expected unavailable result to be unusable")
		}
		if r.Reason != "timeout" || r.Status != StatusUnavailable {
			t.Errorf("unexpected result %+v", r)
		}
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")
		r := Failure(SignalClassifier, cause, ThreatServerError).WithDuration(time.Second)
		if r.Usable() {
			t.Error("expected error result to be unusable")
		}
		if !errors.Is(r.Err, cause) || r.Reason != "boom" {
			t.Errorf("unexpected result %+v", r)
		}
		if r.Duration != time.Second {
			t.Errorf("Duration = %v, expected 1s", r.Duration)
		}
	})
}

// TestSignalStatusJSON tests that statuses serialise by name.
func TestSignalStatusJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(map[string]SignalStatus{"s": StatusUnavailable})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"s":"unavailable"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var decoded map[string]SignalStatus
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["s"] != StatusUnavailable {
		t.Errorf("decoded = %v, expected unavailable", decoded["s"])
	}
}
