package ensemble

import "errors"

var (
	// ErrModelUnavailable indicates that no classifier could be loaded.
	ErrModelUnavailable = errors.New("no classifier model available")

	// ErrShapeMismatch indicates a vector or parameter of the wrong length.
	ErrShapeMismatch = errors.New("feature shape mismatch")

	// ErrInvalidModel indicates a structurally broken model definition.
	ErrInvalidModel = errors.New("invalid model definition")

	// ErrUnknownModelType indicates a bundle entry with an unsupported type.
	ErrUnknownModelType = errors.New("unknown model type")
)
