// Package heuristic implements the rule-based structural analyzer.
//
// The analyzer starts every URL at a score of 100 and applies a fixed,
// ordered set of rules. Each matching rule deducts its weight and reports a
// threat tag. Before any rule runs, the host must end in a recognised public
// suffix (or be an IPv4 literal); otherwise the URL scores 0 with
// INVALID_DOMAIN.
//
// Analysis is synchronous, performs no I/O and never panics past Analyze:
// internal faults are converted into an error result tagged SERVER_ERROR.
package heuristic
