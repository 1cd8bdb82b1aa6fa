package ensemble

import "fmt"

// Scaler is a fitted standard scaler: (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Validate checks that the scaler matches dim features.
func (s *Scaler) Validate(dim int) error {
	if len(s.Mean) != dim || len(s.Scale) != dim {
		return fmt.Errorf("%w: scaler has %d/%d parameters, expected %d",
			ErrShapeMismatch, len(s.Mean), len(s.Scale), dim)
	}
	return nil
}

// Transform returns a scaled copy of x. A zero scale is treated as 1.
// A nil Scaler returns an unmodified copy.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	if s == nil {
		copy(out, x)
		return out, nil
	}
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d features, scaler expects %d",
			ErrShapeMismatch, len(x), len(s.Mean))
	}
	for i, v := range x {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
