package heuristic

import "errors"

var (
	// ErrInternal wraps a panic recovered inside the analyzer.
	ErrInternal = errors.New("heuristic analyzer internal error")

	// ErrNilRecord is returned when Analyze receives no URL record.
	ErrNilRecord = errors.New("nil URL record")
)
