package ensemble

import (
	"fmt"
	"math"
)

// Layer is a dense layer; Weights is indexed [output][input].
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// MLP is a feed-forward network with ReLU hidden layers and a single
// logistic output unit.
type MLP struct {
	name   string
	layers []Layer
}

// NewMLP creates a multi-layer perceptron classifier.
func NewMLP(name string, layers []Layer) *MLP {
	return &MLP{name: name, layers: layers}
}

// Name returns the model name.
func (m *MLP) Name() string { return m.name }

// Kind returns KindMLP.
func (m *MLP) Kind() string { return KindMLP }

// PredictProba runs the forward pass.
func (m *MLP) PredictProba(x []float64) (float64, error) {
	if len(m.layers) == 0 {
		return 0, fmt.Errorf("%w: network %q has no layers", ErrInvalidModel, m.name)
	}

	activation := x
	for li, layer := range m.layers {
		if len(layer.Bias) != len(layer.Weights) {
			return 0, fmt.Errorf("%w: layer %d has %d biases for %d units",
				ErrInvalidModel, li, len(layer.Bias), len(layer.Weights))
		}
		out := make([]float64, len(layer.Weights))
		for j, w := range layer.Weights {
			z, err := dot(w, activation)
			if err != nil {
				return 0, fmt.Errorf("layer %d: %w", li, err)
			}
			z += layer.Bias[j]
			if li < len(m.layers)-1 {
				z = math.Max(0, z)
			}
			out[j] = z
		}
		activation = out
	}

	if len(activation) != 1 {
		return 0, fmt.Errorf("%w: output layer has %d units, expected 1", ErrInvalidModel, len(activation))
	}
	return sigmoid(activation[0]), nil
}
