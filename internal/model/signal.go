package model

import (
	"fmt"
	"math"
	"time"
)

// SignalName identifies a detection signal.
type SignalName string

const (
	// SignalStructure is the parser's disqualification verdict.
	SignalStructure SignalName = "structure"
	// SignalHeuristic is the rule-based structural analyzer.
	SignalHeuristic SignalName = "heuristic"
	// SignalReputation is the blacklist / reputation lookup.
	SignalReputation SignalName = "reputation"
	// SignalClassifier is the machine-learned ensemble.
	SignalClassifier SignalName = "classifier"
)

// SignalStatus is the outcome class of a single signal invocation.
type SignalStatus int

const (
	// StatusSuccess means the signal produced a usable score.
	StatusSuccess SignalStatus = iota
	// StatusUnavailable means the signal could not produce a verdict (timeout, network).
	StatusUnavailable
	// StatusError means the signal failed internally.
	StatusError
)

// String returns the lower-case status name.
func (s SignalStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnavailable:
		return "unavailable"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s SignalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name produced by MarshalText.
func (s *SignalStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*s = StatusSuccess
	case "unavailable":
		*s = StatusUnavailable
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown signal status %q", string(text))
	}
	return nil
}

// MinScore and MaxScore bound every score in the pipeline.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ClampScore bounds s to [MinScore, MaxScore]. NaN is treated as MinScore.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, s))
}

// SignalResult is the outcome of one signal for one URL.
// Exactly one of the three shapes is populated, selected by Status:
// success carries Score and Threats, unavailable carries Reason, error carries Err.
// An error result may also carry diagnostic Threats (SERVER_ERROR); they are
// never used for aggregation.
type SignalResult struct {
	Signal   SignalName
	Status   SignalStatus
	Score    float64
	Threats  []ThreatTag
	Reason   string
	Err      error
	Duration time.Duration
}

// Success builds a usable result. The score is clamped and threats are
// normalised to canonical order.
func Success(name SignalName, score float64, threats ...ThreatTag) SignalResult {
	return SignalResult{
		Signal:  name,
		Status:  StatusSuccess,
		Score:   ClampScore(score),
		Threats: MergeThreats(threats),
	}
}

// Unavailable builds a result for a signal that produced no verdict.
func Unavailable(name SignalName, reason string) SignalResult {
	return SignalResult{
		Signal:  name,
		Status:  StatusUnavailable,
		Reason:  reason,
		Threats: []ThreatTag{},
	}
}

// Failure builds a result for a signal that failed internally.
func Failure(name SignalName, err error, threats ...ThreatTag) SignalResult {
	return SignalResult{
		Signal:  name,
		Status:  StatusError,
		Err:     err,
		Reason:  errorString(err),
		Threats: MergeThreats(threats),
	}
}

// Usable reports whether the result may contribute to aggregation.
func (r SignalResult) Usable() bool {
	return r.Status == StatusSuccess
}

// WithDuration returns a copy of r with the elapsed time set.
func (r SignalResult) WithDuration(d time.Duration) SignalResult {
	r.Duration = d
	return r
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
