package pipeline

import (
	"slices"

	"github.com/nao1215/phishscan/internal/model"
)

// DefaultWeight is applied to signals without a configured weight.
const DefaultWeight = 1.0

// Policy controls how usable signal results are combined.
type Policy struct {
	// Weights maps a signal to its relative weight. Missing signals use
	// DefaultWeight; negative weights count as zero.
	Weights map[model.SignalName]float64

	// BlacklistVeto forces the final score to 0 on a confirmed blacklist hit.
	BlacklistVeto bool
}

// DefaultPolicy weights every signal equally and enables the blacklist veto.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[model.SignalName]float64{
			model.SignalHeuristic:  DefaultWeight,
			model.SignalReputation: DefaultWeight,
			model.SignalClassifier: DefaultWeight,
		},
		BlacklistVeto: true,
	}
}

// Weight returns the weight of signal name.
func (p Policy) Weight(name model.SignalName) float64 {
	w, ok := p.Weights[name]
	if !ok {
		return DefaultWeight
	}
	return max(w, 0)
}

// Combination is the outcome of Combine.
type Combination struct {
	State       model.AggregateState
	FinalScore  float64
	Threats     []model.ThreatTag
	SignalsUsed []model.SignalName
	Vetoed      bool
}

// Combine merges signal results. intended lists the signals that were
// expected to run; the combination is Done only if all of them succeeded.
//
// Only successful results contribute. Their scores are averaged with the
// policy weights renormalised over the contributing signals; if every
// contributing weight is zero the average is unweighted. A successful
// reputation result carrying BLACKLISTED with score 0 vetoes the average
// when the policy allows it.
//
// If no result is usable, Combine returns an *AggregateError.
func Combine(policy Policy, intended []model.SignalName, results []model.SignalResult) (Combination, error) {
	usable := make([]model.SignalResult, 0, len(results))
	for _, r := range results {
		if r.Usable() {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		outcomes := make([]model.SignalOutcome, 0, len(results))
		for _, r := range results {
			outcomes = append(outcomes, model.NewSignalOutcome(r))
		}
		return Combination{State: model.StateFailed}, &AggregateError{Outcomes: outcomes}
	}

	c := Combination{
		SignalsUsed: make([]model.SignalName, 0, len(usable)),
	}
	threatLists := make([][]model.ThreatTag, 0, len(usable))
	for _, r := range usable {
		if !slices.Contains(c.SignalsUsed, r.Signal) {
			c.SignalsUsed = append(c.SignalsUsed, r.Signal)
		}
		threatLists = append(threatLists, r.Threats)
		if policy.BlacklistVeto && isBlacklistHit(r) {
			c.Vetoed = true
		}
	}
	slices.Sort(c.SignalsUsed)
	c.Threats = model.MergeThreats(threatLists...)

	if c.Vetoed {
		c.FinalScore = model.MinScore
	} else {
		c.FinalScore = model.ClampScore(weightedMean(policy, usable))
	}

	c.State = model.StateDone
	for _, name := range intended {
		if !slices.Contains(c.SignalsUsed, name) {
			c.State = model.StateDegraded
			break
		}
	}
	return c, nil
}

func isBlacklistHit(r model.SignalResult) bool {
	return r.Signal == model.SignalReputation &&
		r.Score == model.MinScore &&
		slices.Contains(r.Threats, model.ThreatBlacklisted)
}

func weightedMean(policy Policy, usable []model.SignalResult) float64 {
	var sum, total float64
	for _, r := range usable {
		w := policy.Weight(r.Signal)
		sum += w * r.Score
		total += w
	}
	if total > 0 {
		return sum / total
	}

	sum = 0
	for _, r := range usable {
		sum += r.Score
	}
	return sum / float64(len(usable))
}
