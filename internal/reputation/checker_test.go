package reputation

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/phishscan/internal/model"
)

// TestChecker tests the mapping from lookups to signal results.
func TestChecker(t *testing.T) {
	t.Parallel()

	rec := &model.URLRecord{Raw: "http://x.example", Host: "x.example"}

	testCases := []struct {
		name    string
		source  *stubSource
		status  model.SignalStatus
		score   float64
		threats []model.ThreatTag
	}{
		{"hit", &stubSource{name: "s", verdict: Verdict{Hit: true}}, model.StatusSuccess, 0, []model.ThreatTag{model.ThreatBlacklisted}},
		{"miss", &stubSource{name: "s"}, model.StatusSuccess, 100, []model.ThreatTag{}},
		{"lookup error", &stubSource{name: "s", err: unavailable(errors.New("down"))}, model.StatusUnavailable, 0, []model.ThreatTag{}},
		{"plain error is still unavailable", &stubSource{name: "s", err: errors.New("bad json")}, model.StatusUnavailable, 0, []model.ThreatTag{}},
		{"panic", &stubSource{name: "s", panics: true}, model.StatusError, 0, []model.ThreatTag{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := NewChecker(tc.source, nil)
			got := c.Check(context.Background(), rec)
			if got.Signal != model.SignalReputation {
				t.Errorf("Signal = %v", got.Signal)
			}
			if got.Status != tc.status {
				t.Fatalf("Status = %v, expected %v (%+v)", got.Status, tc.status, got)
			}
			if got.Score != tc.score {
				t.Errorf("Score = %v, expected %v", got.Score, tc.score)
			}
			if len(got.Threats) != len(tc.threats) {
				t.Fatalf("Threats = %v, expected %v", got.Threats, tc.threats)
			}
			for i := range tc.threats {
				if got.Threats[i] != tc.threats[i] {
					t.Errorf("Threats = %v, expected %v", got.Threats, tc.threats)
				}
			}
		})
	}
}

// TestCheckerCancelledContext tests that a cancelled request is unavailable.
func TestCheckerCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewChecker(&stubSource{name: "s"}, nil).Check(ctx, &model.URLRecord{Raw: "http://x.example"})
	if got.Status != model.StatusUnavailable {
		t.Errorf("Status = %v, expected unavailable", got.Status)
	}
}
