// Package database provides SQLite-based scan history for phishscan.
//
// ScanDB stores one row per scored URL in the scans table: the final score,
// threats, signals used and the complete result as JSON. The CLI and the
// HTTP API write to it after scoring; the scoring pipeline itself never does.
//
// SQLite (via modernc.org/sqlite) keeps the history in a single CGO-free file
// under the XDG data directory, and WAL mode lets the API read history while
// a batch run is writing.
package database
