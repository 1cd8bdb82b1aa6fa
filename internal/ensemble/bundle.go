package ensemble

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/crypto/sha3"
)

// bundleFile is the on-disk model bundle.
type bundleFile struct {
	Version      string                     `json:"version"`
	FeatureCount int                        `json:"feature_count"`
	Scaler       *Scaler                    `json:"scaler"`
	Models       map[string]json.RawMessage `json:"models"`
}

type modelSpec struct {
	Type string `json:"type"`

	// logistic
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`

	// random_forest
	Trees       []Tree    `json:"trees"`
	Importances []float64 `json:"feature_importances"`

	// mlp
	Layers []Layer `json:"layers"`
}

// LoadBundle reads and parses a model bundle file.
func LoadBundle(path string, logger *slog.Logger) (*Ensemble, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read model bundle: %w", err)
	}
	return ParseBundle(data, logger)
}

// ParseBundle decodes a bundle. Models are loaded in name order; a model
// that cannot be decoded is skipped with a warning. When no model remains
// the error wraps ErrModelUnavailable.
func ParseBundle(data []byte, logger *slog.Logger) (*Ensemble, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var bf bundleFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("%w: failed to decode bundle: %w", ErrModelUnavailable, err)
	}
	if bf.FeatureCount <= 0 {
		return nil, fmt.Errorf("%w: bundle feature_count must be positive", ErrModelUnavailable)
	}

	names := make([]string, 0, len(bf.Models))
	for name := range bf.Models {
		names = append(names, name)
	}
	slices.Sort(names)

	models := make([]Classifier, 0, len(names))
	for _, name := range names {
		m, err := decodeModel(name, bf.Models[name], bf.FeatureCount)
		if err != nil {
			logger.Warn("skipping model", "model", name, "error", err)
			continue
		}
		models = append(models, m)
	}

	e, err := New(bf.Scaler, bf.FeatureCount, models...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	sum := sha3.Sum256(data)
	e.version = bf.Version
	e.digest = hex.EncodeToString(sum[:])
	return e, nil
}

func decodeModel(name string, raw json.RawMessage, dim int) (Classifier, error) {
	var spec modelSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	switch spec.Type {
	case KindLogistic:
		if len(spec.Coef) != dim {
			return nil, fmt.Errorf("%w: %d coefficients, expected %d", ErrShapeMismatch, len(spec.Coef), dim)
		}
		return NewLogistic(name, spec.Coef, spec.Intercept), nil
	case KindRandomForest:
		if len(spec.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
		}
		if len(spec.Importances) != 0 && len(spec.Importances) != dim {
			return nil, fmt.Errorf("%w: %d importances, expected %d", ErrShapeMismatch, len(spec.Importances), dim)
		}
		return NewRandomForest(name, spec.Trees, spec.Importances), nil
	case KindMLP:
		if len(spec.Layers) == 0 {
			return nil, fmt.Errorf("%w: network has no layers", ErrInvalidModel)
		}
		for _, w := range spec.Layers[0].Weights {
			if len(w) != dim {
				return nil, fmt.Errorf("%w: input layer expects %d features, bundle has %d", ErrShapeMismatch, len(w), dim)
			}
		}
		return NewMLP(name, spec.Layers), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelType, spec.Type)
	}
}
