package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/phishscan/internal/ensemble"
	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/heuristic"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/reputation"
)

// Signal is one independently failable detector. Evaluate must return a
// result whose Signal field equals Name(); it should honour ctx but the
// aggregator does not rely on it to enforce timeouts.
type Signal interface {
	Name() model.SignalName
	Evaluate(ctx context.Context, rec *model.URLRecord) model.SignalResult
}

// HeuristicStep runs the rule-based analyzer.
type HeuristicStep struct {
	analyzer *heuristic.Analyzer
}

// NewHeuristicStep wraps analyzer as a Signal.
func NewHeuristicStep(analyzer *heuristic.Analyzer) *HeuristicStep {
	return &HeuristicStep{analyzer: analyzer}
}

// Name returns model.SignalHeuristic.
func (s *HeuristicStep) Name() model.SignalName {
	return model.SignalHeuristic
}

// Evaluate analyses rec. The analyzer does no I/O, so ctx is ignored.
func (s *HeuristicStep) Evaluate(_ context.Context, rec *model.URLRecord) model.SignalResult {
	return s.analyzer.Analyze(rec)
}

// ReputationStep runs a blacklist lookup.
type ReputationStep struct {
	checker *reputation.Checker
}

// NewReputationStep wraps checker as a Signal.
func NewReputationStep(checker *reputation.Checker) *ReputationStep {
	return &ReputationStep{checker: checker}
}

// Name returns model.SignalReputation.
func (s *ReputationStep) Name() model.SignalName {
	return model.SignalReputation
}

// Evaluate looks rec up.
func (s *ReputationStep) Evaluate(ctx context.Context, rec *model.URLRecord) model.SignalResult {
	return s.checker.Check(ctx, rec)
}

// Predictor is the part of *ensemble.Ensemble used by ClassifierStep.
type Predictor interface {
	Predict(v []float64) (ensemble.Prediction, error)
}

// ClassifierStep extracts the feature vector and runs the ensemble.
// The score is (1 - probability) * 100 so that higher stays safer.
type ClassifierStep struct {
	predictor Predictor
}

// NewClassifierStep wraps predictor as a Signal.
func NewClassifierStep(predictor Predictor) *ClassifierStep {
	return &ClassifierStep{predictor: predictor}
}

// Name returns model.SignalClassifier.
func (s *ClassifierStep) Name() model.SignalName {
	return model.SignalClassifier
}

// Evaluate classifies rec. Prediction failures are reported as errors.
func (s *ClassifierStep) Evaluate(ctx context.Context, rec *model.URLRecord) model.SignalResult {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(model.SignalClassifier, err.Error())
	}

	pred, err := s.predictor.Predict(features.Extract(rec))
	if err != nil {
		return model.Failure(model.SignalClassifier, fmt.Errorf("classifier prediction failed: %w", err))
	}

	score := (1 - pred.Probability) * model.MaxScore
	if pred.IsPhishing {
		return model.Success(model.SignalClassifier, score, model.ThreatMLPhishingLikely)
	}
	return model.Success(model.SignalClassifier, score)
}
