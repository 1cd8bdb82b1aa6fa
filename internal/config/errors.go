package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and File.Apply() and can be
// checked with errors.Is().
var (
	// ErrNoTarget is returned when no URL or list file is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrUnknownSignal is returned when a weight names a signal that does not exist.
	ErrUnknownSignal = errors.New("unknown signal name: must be heuristic, reputation or classifier")

	// ErrInvalidWeight is returned when a signal weight is negative.
	ErrInvalidWeight = errors.New("invalid signal weight: must be non-negative")

	// ErrInvalidReputationMode is returned for a reputation mode other than snapshot, api or off.
	ErrInvalidReputationMode = errors.New("invalid reputation mode: must be snapshot, api or off")

	// ErrMissingFeed is returned when snapshot mode has no feed location.
	ErrMissingFeed = errors.New("reputation mode snapshot requires a feed URL or file")

	// ErrMissingAPIEndpoint is returned when api mode has no endpoint.
	ErrMissingAPIEndpoint = errors.New("reputation mode api requires an API endpoint")

	// ErrInvalidRefreshInterval is returned when the feed refresh interval is not positive.
	ErrInvalidRefreshInterval = errors.New("invalid refresh interval: must be positive")

	// ErrInvalidRateLimit is returned when the API rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid API rate limit: must be non-negative")

	// ErrInvalidProxyAddress is returned when the proxy is not in host:port form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")

	// ErrInvalidLimit is returned when a history or batch limit is not positive.
	ErrInvalidLimit = errors.New("invalid limit: must be positive")
)
