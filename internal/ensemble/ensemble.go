package ensemble

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// phishingThreshold is the probability above which a URL is phishing.
const phishingThreshold = 0.5

// Prediction is the combined output of the ensemble for one vector.
type Prediction struct {
	// IsPhishing is true when Probability exceeds 0.5.
	IsPhishing bool `json:"is_phishing"`

	// Probability is the mean phishing probability across models.
	Probability float64 `json:"probability"`

	// Confidence is |Probability - 0.5| * 2, in [0,1].
	Confidence float64 `json:"confidence"`

	// PerModel holds each model's probability keyed by model name.
	PerModel map[string]float64 `json:"per_model"`

	// Votes holds each model's phishing vote keyed by model name.
	Votes map[string]bool `json:"votes"`
}

// Combine aggregates per-model probabilities into a Prediction.
// It is a pure function; an empty input yields a zero Prediction.
func Combine(perModel map[string]float64) Prediction {
	pred := Prediction{
		PerModel: make(map[string]float64, len(perModel)),
		Votes:    make(map[string]bool, len(perModel)),
	}
	if len(perModel) == 0 {
		return pred
	}

	sum := 0.0
	for name, p := range perModel {
		pred.PerModel[name] = p
		pred.Votes[name] = p > phishingThreshold
		sum += p
	}
	pred.Probability = sum / float64(len(perModel))
	pred.IsPhishing = pred.Probability > phishingThreshold
	pred.Confidence = math.Abs(pred.Probability-phishingThreshold) * 2
	return pred
}

// Importance is a feature's contribution reported by a tree model.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Ensemble is an immutable set of classifiers sharing one scaler.
// It is safe for concurrent use.
type Ensemble struct {
	scaler       *Scaler
	models       []Classifier
	dim          int
	featureNames []string
	version      string
	digest       string
}

// New creates an Ensemble over dim features. It fails with
// ErrModelUnavailable when no classifier is given.
func New(scaler *Scaler, dim int, models ...Classifier) (*Ensemble, error) {
	if len(models) == 0 {
		return nil, ErrModelUnavailable
	}
	if scaler != nil {
		if err := scaler.Validate(dim); err != nil {
			return nil, err
		}
	}
	return &Ensemble{
		scaler: scaler,
		models: slices.Clone(models),
		dim:    dim,
	}, nil
}

// WithFeatureNames returns a copy of e that labels importances with names.
func (e *Ensemble) WithFeatureNames(names []string) *Ensemble {
	c := *e
	c.featureNames = slices.Clone(names)
	return &c
}

// Dimension returns the expected vector length.
func (e *Ensemble) Dimension() int { return e.dim }

// Version returns the bundle version string, if any.
func (e *Ensemble) Version() string { return e.version }

// Digest returns the SHA3-256 digest of the bundle file, if loaded from one.
func (e *Ensemble) Digest() string { return e.digest }

// Models returns the model names in evaluation order.
func (e *Ensemble) Models() []string {
	names := make([]string, 0, len(e.models))
	for _, m := range e.models {
		names = append(names, m.Name())
	}
	return names
}

// Predict scales v and combines every model's probability.
// Any model failure fails the whole prediction.
func (e *Ensemble) Predict(v []float64) (Prediction, error) {
	if len(v) != e.dim {
		return Prediction{}, fmt.Errorf("%w: got %d features, expected %d", ErrShapeMismatch, len(v), e.dim)
	}

	scaled, err := e.scaler.Transform(v)
	if err != nil {
		return Prediction{}, err
	}

	perModel := make(map[string]float64, len(e.models))
	for _, m := range e.models {
		p, err := m.PredictProba(scaled)
		if err != nil {
			return Prediction{}, fmt.Errorf("model %s: %w", m.Name(), err)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Prediction{}, fmt.Errorf("%w: model %s returned probability %v", ErrInvalidModel, m.Name(), p)
		}
		perModel[m.Name()] = p
	}
	return Combine(perModel), nil
}

// FeatureImportance returns the importances reported by the first random
// forest in the ensemble, sorted by descending importance. It returns nil
// when no model reports importances.
func (e *Ensemble) FeatureImportance() []Importance {
	for _, m := range e.models {
		forest, ok := m.(*RandomForest)
		if !ok || len(forest.importances) == 0 {
			continue
		}
		out := make([]Importance, 0, len(forest.importances))
		for i, imp := range forest.importances {
			name := fmt.Sprintf("feature_%d", i)
			if i < len(e.featureNames) {
				name = e.featureNames[i]
			}
			out = append(out, Importance{Feature: name, Importance: imp})
		}
		slices.SortStableFunc(out, func(a, b Importance) int {
			return cmp.Compare(b.Importance, a.Importance)
		})
		return out
	}
	return nil
}
