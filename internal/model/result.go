package model

import (
	"fmt"
	"slices"
	"time"
)

// AggregateState is the lifecycle state of one scoring request.
// Pending -> Collecting -> Combining -> {Done, Degraded, Failed}.
type AggregateState int

const (
	// StatePending means the URL has not been parsed yet.
	StatePending AggregateState = iota
	// StateCollecting means signals are running.
	StateCollecting
	// StateCombining means signal results are being combined.
	StateCombining
	// StateDone means every intended signal contributed.
	StateDone
	// StateDegraded means at least one signal contributed but not all.
	StateDegraded
	// StateFailed means no signal produced a usable result.
	StateFailed
)

var stateNames = []string{"pending", "collecting", "combining", "done", "degraded", "failed"}

// String returns the lower-case state name.
func (s AggregateState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether s is one of Done, Degraded or Failed.
func (s AggregateState) Terminal() bool {
	return s == StateDone || s == StateDegraded || s == StateFailed
}

// MarshalText encodes the state by name.
func (s AggregateState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name produced by MarshalText.
func (s *AggregateState) UnmarshalText(text []byte) error {
	i := slices.Index(stateNames, string(text))
	if i < 0 {
		return fmt.Errorf("unknown aggregate state %q", string(text))
	}
	*s = AggregateState(i)
	return nil
}

// SafetyLevel is a coarse bucket of the final score for display.
type SafetyLevel string

const (
	// SafetyHigh is assigned to scores of 80 and above.
	SafetyHigh SafetyLevel = "high"
	// SafetyMedium is assigned to scores from 60 up to 80.
	SafetyMedium SafetyLevel = "medium"
	// SafetyLow is assigned to scores below 60.
	SafetyLow SafetyLevel = "low"
)

// SafetyLevelFor buckets a final score.
func SafetyLevelFor(score float64) SafetyLevel {
	switch {
	case score >= 80:
		return SafetyHigh
	case score >= 60:
		return SafetyMedium
	default:
		return SafetyLow
	}
}

// SignalOutcome is the per-signal summary attached to an aggregate result.
type SignalOutcome struct {
	Signal     SignalName   `json:"signal"`
	Status     SignalStatus `json:"status"`
	Score      *float64     `json:"score,omitempty"`
	Threats    []ThreatTag  `json:"threats,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

// NewSignalOutcome summarises a signal result. Only successful results carry a score.
func NewSignalOutcome(r SignalResult) SignalOutcome {
	o := SignalOutcome{
		Signal:     r.Signal,
		Status:     r.Status,
		Threats:    slices.Clone(r.Threats),
		Reason:     r.Reason,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Usable() {
		score := r.Score
		o.Score = &score
	}
	return o
}

// AggregateResult is the final verdict for one URL.
// It is built once by the aggregator and treated as read-only afterwards.
type AggregateResult struct {
	// ID uniquely identifies the scan.
	ID string `json:"id"`

	// URL is the raw URL that was scored.
	URL string `json:"url"`

	// FinalScore is in [0,100]; higher is safer.
	FinalScore float64 `json:"score"`

	// Threats is the deduplicated union of threats from usable signals, in canonical order.
	Threats []ThreatTag `json:"threats"`

	// SignalsUsed lists the signals whose results contributed, sorted by name.
	SignalsUsed []SignalName `json:"signals_used"`

	// State is Done or Degraded.
	State AggregateState `json:"state"`

	// Vetoed is true when a blacklist hit forced the score to 0.
	Vetoed bool `json:"vetoed"`

	// SafetyLevel buckets FinalScore.
	SafetyLevel SafetyLevel `json:"safety_level"`

	// Signals records every intended signal's outcome, including failed ones.
	Signals []SignalOutcome `json:"signals"`

	// ScannedAt is when the result was produced.
	ScannedAt time.Time `json:"scanned_at"`
}

// HasThreat reports whether the result carries tag t.
func (r *AggregateResult) HasThreat(t ThreatTag) bool {
	return slices.Contains(r.Threats, t)
}

// Used reports whether signal name contributed to the result.
func (r *AggregateResult) Used(name SignalName) bool {
	return slices.Contains(r.SignalsUsed, name)
}

// Outcome returns the recorded outcome for signal name.
func (r *AggregateResult) Outcome(name SignalName) (SignalOutcome, bool) {
	for _, o := range r.Signals {
		if o.Signal == name {
			return o, true
		}
	}
	return SignalOutcome{}, false
}

// Severity returns the highest severity among the result's threats.
func (r *AggregateResult) Severity() Severity {
	return MaxSeverity(r.Threats)
}
