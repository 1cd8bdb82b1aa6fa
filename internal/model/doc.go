// Package model defines the core data structures used throughout phishscan.
//
// This package contains the following main types:
//   - URLRecord: the structural decomposition of a URL shared by all signals
//   - SignalResult: the outcome of one detection signal (success, unavailable, error)
//   - ThreatTag: the closed enumeration of phishing indicators and their severities
//   - AggregateResult: the combined verdict returned to callers
//
// Models live in their own package so that the signal packages (heuristic,
// reputation, ensemble) and the aggregator can share them without import cycles.
// All types serialise to JSON for API responses and history storage.
package model
