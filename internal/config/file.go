package config

import (
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// File represents the structure of the .phishscan configuration file.
// Every field is optional; zero values leave the defaults untouched.
type File struct {
	Scoring    ScoringSection    `yaml:"scoring,omitempty"`
	Timeouts   TimeoutSection    `yaml:"timeouts,omitempty"`
	Heuristics HeuristicsSection `yaml:"heuristics,omitempty"`
	Reputation ReputationSection `yaml:"reputation,omitempty"`
	Classifier ClassifierSection `yaml:"classifier,omitempty"`
	Server     ServerSection     `yaml:"server,omitempty"`
	History    HistorySection    `yaml:"history,omitempty"`
}

// ScoringSection configures how signal scores are combined.
type ScoringSection struct {
	// Weights maps signal names (heuristic, reputation, classifier) to weights.
	Weights map[string]float64 `yaml:"weights,omitempty"`

	// BlacklistVeto forces the score to 0 on a blacklist hit. Defaults to true.
	BlacklistVeto *bool `yaml:"blacklist_veto,omitempty"`
}

// TimeoutSection configures per-signal deadlines, e.g. "2s".
type TimeoutSection struct {
	Reputation time.Duration `yaml:"reputation,omitempty"`
	Classifier time.Duration `yaml:"classifier,omitempty"`
	HTTP       time.Duration `yaml:"http,omitempty"`
}

// HeuristicsSection configures the rule-based analyzer.
type HeuristicsSection struct {
	Keywords       []string `yaml:"keywords,omitempty"`
	ExtendedRules  *bool    `yaml:"extended_rules,omitempty"`
	SuspiciousTLDs []string `yaml:"suspicious_tlds,omitempty"`
}

// ReputationSection configures the blacklist sources.
type ReputationSection struct {
	Mode            string        `yaml:"mode,omitempty"`
	Feed            string        `yaml:"feed,omitempty"`
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	MatchHosts      *bool         `yaml:"match_hosts,omitempty"`
	APIEndpoint     string        `yaml:"api_endpoint,omitempty"`
	APIKey          string        `yaml:"api_key,omitempty"`
	RateLimit       *float64      `yaml:"rate_limit,omitempty"`
	Burst           int           `yaml:"burst,omitempty"`
	Proxy           string        `yaml:"proxy,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty"`
	Blocklist       []string      `yaml:"blocklist,omitempty"`
	CacheDir        string        `yaml:"cache_dir,omitempty"`
}

// ClassifierSection configures the machine-learned signal.
type ClassifierSection struct {
	// Bundle is the path of the model bundle JSON.
	Bundle string `yaml:"bundle,omitempty"`
}

// ServerSection configures `phishscan serve`.
type ServerSection struct {
	Listen         string   `yaml:"listen,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
	MaxBatch       int      `yaml:"max_batch,omitempty"`
}

// HistorySection configures the scan history store.
type HistorySection struct {
	Dir      string `yaml:"dir,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
	Limit    int    `yaml:"limit,omitempty"`
}

// Apply copies every value set in f onto cfg.
func (f *File) Apply(cfg *Config) error {
	if len(f.Scoring.Weights) > 0 {
		weights := make(map[model.SignalName]float64, len(f.Scoring.Weights))
		for name, w := range f.Scoring.Weights {
			sig := model.SignalName(name)
			if !validSignal(sig) {
				return ErrUnknownSignal
			}
			weights[sig] = w
		}
		for name, w := range weights {
			cfg.Weights[name] = w
		}
	}
	setBool(&cfg.BlacklistVeto, f.Scoring.BlacklistVeto)

	setDuration(&cfg.ReputationTimeout, f.Timeouts.Reputation)
	setDuration(&cfg.ClassifierTimeout, f.Timeouts.Classifier)
	setDuration(&cfg.HTTPTimeout, f.Timeouts.HTTP)

	setStrings(&cfg.Keywords, f.Heuristics.Keywords)
	setBool(&cfg.ExtendedRules, f.Heuristics.ExtendedRules)
	setStrings(&cfg.SuspiciousTLDs, f.Heuristics.SuspiciousTLDs)

	r := f.Reputation
	setString(&cfg.ReputationMode, r.Mode)
	setString(&cfg.FeedLocation, r.Feed)
	setDuration(&cfg.RefreshInterval, r.RefreshInterval)
	setBool(&cfg.MatchHosts, r.MatchHosts)
	setString(&cfg.APIEndpoint, r.APIEndpoint)
	setString(&cfg.APIKey, r.APIKey)
	if r.RateLimit != nil {
		cfg.APIRateLimit = *r.RateLimit
	}
	if r.Burst > 0 {
		cfg.APIBurst = r.Burst
	}
	setString(&cfg.ProxyAddress, r.Proxy)
	setString(&cfg.UserAgent, r.UserAgent)
	setStrings(&cfg.Blocklist, r.Blocklist)
	setString(&cfg.CacheDir, r.CacheDir)

	setString(&cfg.ModelPath, f.Classifier.Bundle)

	setString(&cfg.ListenAddress, f.Server.Listen)
	setStrings(&cfg.AllowedOrigins, f.Server.AllowedOrigins)
	if f.Server.MaxBatch > 0 {
		cfg.MaxBatchURLs = f.Server.MaxBatch
	}

	setString(&cfg.DBDir, f.History.Dir)
	if f.History.Disabled {
		cfg.SaveToDB = false
	}
	if f.History.Limit > 0 {
		cfg.HistoryLimit = f.History.Limit
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
