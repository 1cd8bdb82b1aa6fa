package reputation

import "errors"

var (
	// ErrUnavailable indicates that a source cannot give a verdict right now.
	ErrUnavailable = errors.New("reputation verdict unavailable")

	// ErrNoSnapshot indicates that no blacklist snapshot has been loaded yet.
	ErrNoSnapshot = errors.New("no blacklist snapshot loaded")

	// ErrEmptyFeed indicates that a fetched feed contained no entries.
	ErrEmptyFeed = errors.New("blacklist feed is empty")

	// ErrFeedTooLarge indicates a feed over the updater's size limit.
	ErrFeedTooLarge = errors.New("blacklist feed too large")

	// ErrFeedStatus indicates a non-200 response from a feed or API.
	ErrFeedStatus = errors.New("unexpected HTTP status")

	// ErrUpdaterRunning indicates that Run was called on an updater that is already running.
	ErrUpdaterRunning = errors.New("snapshot updater already running")

	// ErrInvalidEndpoint indicates a malformed API endpoint.
	ErrInvalidEndpoint = errors.New("invalid reputation API endpoint")
)
