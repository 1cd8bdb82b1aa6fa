// Package pipeline scores a URL by running independent detection signals
// and combining whatever they produce.
//
// An Aggregator parses the URL, runs the heuristic signal synchronously and
// the remaining signals (reputation, classifier) concurrently, each under
// its own timeout. Signals that time out, panic or report no verdict are
// dropped from the combination; the result records which signals were used.
// If no signal produced a usable result, ScoreURL returns an *AggregateError
// instead of a score.
//
// Combine is the pure combination step and can be used on its own.
// BatchProcessor scores many URLs with bounded concurrency using errgroup.
package pipeline
