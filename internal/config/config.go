package config

import (
	"net"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/phishscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"

	// DefaultReputationTimeout bounds a single reputation lookup.
	DefaultReputationTimeout = 2 * time.Second

	// DefaultClassifierTimeout bounds a single classifier inference.
	DefaultClassifierTimeout = 1 * time.Second

	// DefaultHTTPTimeout bounds outbound requests made by the feed updater.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultBatchSize is the number of URLs scored concurrently.
	DefaultBatchSize = 10

	// DefaultRefreshInterval is how often the blacklist feed is downloaded.
	// Public phishing feeds update a few times a day.
	DefaultRefreshInterval = 12 * time.Hour

	// DefaultFeedURL is the OpenPhish community feed.
	DefaultFeedURL = "https://raw.githubusercontent.com/openphish/public_feed/refs/heads/main/feed.txt"

	// DefaultListenAddress is where `phishscan serve` listens.
	DefaultListenAddress = "127.0.0.1:8000"

	// DefaultHistoryLimit is the number of scans returned by history queries.
	DefaultHistoryLimit = 50

	// DefaultMaxBatchURLs caps the URLs accepted by one batch API request.
	DefaultMaxBatchURLs = 100

	// DefaultAPIRateLimit is the reputation API request budget per second.
	DefaultAPIRateLimit = 5.0

	// DefaultAPIBurst is the reputation API burst size.
	DefaultAPIBurst = 10

	// DefaultUserAgent identifies phishscan in feed and API requests.
	DefaultUserAgent = "phishscan/1.0 (+https://github.com/nao1215/phishscan)"

	// FeedCacheFileName is the cached feed inside the cache directory.
	FeedCacheFileName = "feed.txt"
)

// Reputation modes.
const (
	// ReputationSnapshot checks URLs against a periodically refreshed feed.
	ReputationSnapshot = "snapshot"
	// ReputationAPI queries an external reputation service per URL.
	ReputationAPI = "api"
	// ReputationOff disables the feed and API sources. The static blocklist still applies.
	ReputationOff = "off"
)

// DefaultAllowedOrigins are the CORS origins of the local web clients.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Config holds all configuration options for phishscan.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than held in global state.
type Config struct {
	// Weights maps a signal to its weight in the final score.
	// Missing signals weigh 1.0.
	Weights map[model.SignalName]float64

	// BlacklistVeto forces the score to 0 on a confirmed blacklist hit.
	BlacklistVeto bool

	// ReputationTimeout bounds a reputation lookup.
	ReputationTimeout time.Duration

	// ClassifierTimeout bounds classifier inference.
	ClassifierTimeout time.Duration

	// Keywords replaces the default phishing keyword list when non-empty.
	Keywords []string

	// ExtendedRules enables the suspicious-TLD and mixed-protocol rules.
	ExtendedRules bool

	// SuspiciousTLDs replaces the default suspicious TLD list when non-empty.
	SuspiciousTLDs []string

	// ReputationMode is one of ReputationSnapshot, ReputationAPI or ReputationOff.
	ReputationMode string

	// FeedLocation is the blacklist feed URL or file path.
	FeedLocation string

	// RefreshInterval is the feed refresh period.
	RefreshInterval time.Duration

	// MatchHosts makes a listed host match every URL on it.
	MatchHosts bool

	// APIEndpoint is the reputation API URL used in api mode.
	APIEndpoint string

	// APIKey is sent as X-API-Key to the reputation API.
	APIKey string

	// APIRateLimit is the reputation API request budget per second.
	// Zero disables client-side limiting.
	APIRateLimit float64

	// APIBurst is the reputation API burst size.
	APIBurst int

	// ProxyAddress routes feed and API traffic through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// HTTPTimeout bounds feed downloads.
	HTTPTimeout time.Duration

	// UserAgent is sent with feed and API requests.
	UserAgent string

	// Blocklist holds operator-maintained hosts and URLs that are always blacklisted.
	Blocklist []string

	// ModelPath is the classifier bundle. Empty disables the classifier signal.
	ModelPath string

	// ListenAddress is the HTTP server address.
	ListenAddress string

	// AllowedOrigins are the CORS origins accepted by the HTTP server.
	AllowedOrigins []string

	// MaxBatchURLs caps a batch API request.
	MaxBatchURLs int

	// Verbose enables debug logging.
	Verbose bool

	// BatchSize is the number of URLs scored concurrently by the CLI.
	BatchSize int

	// ConfigFilePath is the configuration file path. If empty, .phishscan is
	// looked up in the current directory and then in the home directory.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path. Empty writes to stdout.
	ReportFile string

	// Targets is the list of URLs to score.
	Targets []string

	// DBDir is the directory holding the SQLite history database.
	DBDir string

	// SaveToDB enables writing results to the history database.
	SaveToDB bool

	// CacheDir holds the cached blacklist feed.
	CacheDir string

	// HistoryLimit is the default number of entries returned by history queries.
	HistoryLimit int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Weights: map[model.SignalName]float64{
			model.SignalHeuristic:  1,
			model.SignalReputation: 1,
			model.SignalClassifier: 1,
		},
		BlacklistVeto:     true,
		ReputationTimeout: DefaultReputationTimeout,
		ClassifierTimeout: DefaultClassifierTimeout,
		ReputationMode:    ReputationSnapshot,
		FeedLocation:      DefaultFeedURL,
		RefreshInterval:   DefaultRefreshInterval,
		MatchHosts:        true,
		APIRateLimit:      DefaultAPIRateLimit,
		APIBurst:          DefaultAPIBurst,
		HTTPTimeout:       DefaultHTTPTimeout,
		UserAgent:         DefaultUserAgent,
		ListenAddress:     DefaultListenAddress,
		AllowedOrigins:    append([]string(nil), DefaultAllowedOrigins...),
		MaxBatchURLs:      DefaultMaxBatchURLs,
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		CacheDir:          XDGCacheDir(),
		HistoryLimit:      DefaultHistoryLimit,
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// On Linux: ~/.local/share/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %LOCALAPPDATA%\phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for phishscan.
// On Linux: ~/.cache/phishscan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// FeedCachePath returns the path of the cached blacklist feed, or "" when
// no cache directory is configured.
func (c *Config) FeedCachePath() string {
	if c.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.CacheDir, FeedCacheFileName)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.ReputationTimeout <= 0 || c.ClassifierTimeout <= 0 || c.HTTPTimeout <= 0 {
		return ErrInvalidTimeout
	}

	for name, w := range c.Weights {
		if !validSignal(name) {
			return ErrUnknownSignal
		}
		if w < 0 {
			return ErrInvalidWeight
		}
	}

	switch c.ReputationMode {
	case ReputationSnapshot:
		if c.FeedLocation == "" {
			return ErrMissingFeed
		}
		if c.RefreshInterval <= 0 {
			return ErrInvalidRefreshInterval
		}
	case ReputationAPI:
		if c.APIEndpoint == "" {
			return ErrMissingAPIEndpoint
		}
	case ReputationOff:
	default:
		return ErrInvalidReputationMode
	}

	if c.APIRateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.HistoryLimit <= 0 || c.MaxBatchURLs <= 0 {
		return ErrInvalidLimit
	}

	return nil
}

// ValidateScan runs Validate and additionally requires at least one target.
func (c *Config) ValidateScan() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

func validSignal(name model.SignalName) bool {
	switch name {
	case model.SignalHeuristic, model.SignalReputation, model.SignalClassifier:
		return true
	default:
		return false
	}
}
