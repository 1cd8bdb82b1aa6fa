package ensemble

import (
	"fmt"
	"math"
)

// Model kinds as they appear in bundle files.
const (
	KindLogistic     = "logistic"
	KindRandomForest = "random_forest"
	KindMLP          = "mlp"
)

// Classifier is one trained model inside the ensemble.
// PredictProba receives an already scaled vector and returns the
// probability that the URL is phishing.
type Classifier interface {
	Name() string
	Kind() string
	PredictProba(x []float64) (float64, error)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w, x []float64) (float64, error) {
	if len(w) != len(x) {
		return 0, fmt.Errorf("%w: %d weights for %d inputs", ErrShapeMismatch, len(w), len(x))
	}
	sum := 0.0
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum, nil
}

// Logistic is a binary logistic regression model.
type Logistic struct {
	name      string
	coef      []float64
	intercept float64
}

// NewLogistic creates a logistic regression classifier.
func NewLogistic(name string, coef []float64, intercept float64) *Logistic {
	return &Logistic{name: name, coef: coef, intercept: intercept}
}

// Name returns the model name.
func (l *Logistic) Name() string { return l.name }

// Kind returns KindLogistic.
func (l *Logistic) Kind() string { return KindLogistic }

// PredictProba returns sigmoid(coef·x + intercept).
func (l *Logistic) PredictProba(x []float64) (float64, error) {
	z, err := dot(l.coef, x)
	if err != nil {
		return 0, err
	}
	return sigmoid(z + l.intercept), nil
}
