// Package reputation answers whether a URL is on a known-bad list.
//
// Two kinds of Source are provided. SnapshotSource serves lookups from an
// immutable in-memory Snapshot of a blacklist feed (OpenPhish-style, one URL
// per line); the snapshot is replaced atomically by a single background
// Updater, so lookups never wait for a refresh. APISource queries an
// external reputation service synchronously under the caller's deadline and
// a client-side rate limit.
//
// Checker adapts a Source to the signal contract: a hit is a success with
// score 0 and BLACKLISTED, a miss is a success with score 100, and anything
// that prevents a verdict (timeout, transport failure, no snapshot yet) is
// reported as unavailable rather than as an error.
package reputation
