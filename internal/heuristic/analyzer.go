package heuristic

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// startScore is the score of a URL before any deduction.
const startScore = 100.0

// Options configures the analyzer.
type Options struct {
	// Keywords are the lure words checked case-insensitively anywhere in the URL.
	Keywords []string

	// ExtendedRules enables the suspicious-TLD and mixed-protocol rules.
	ExtendedRules bool

	// SuspiciousTLDs is the TLD list used by the suspicious-TLD rule.
	SuspiciousTLDs []string

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the built-in analyzer options.
func DefaultOptions() Options {
	return Options{
		Keywords:       append([]string(nil), DefaultKeywords...),
		SuspiciousTLDs: append([]string(nil), DefaultSuspiciousTLDs...),
	}
}

// WithKeywords replaces the keyword list. An empty list keeps the defaults.
func WithKeywords(keywords []string) func(*Options) {
	return func(o *Options) {
		if len(keywords) > 0 {
			o.Keywords = keywords
		}
	}
}

// WithExtendedRules toggles the extended rule set.
func WithExtendedRules(enabled bool) func(*Options) {
	return func(o *Options) {
		o.ExtendedRules = enabled
	}
}

// WithSuspiciousTLDs replaces the suspicious TLD list. An empty list keeps the defaults.
func WithSuspiciousTLDs(tlds []string) func(*Options) {
	return func(o *Options) {
		if len(tlds) > 0 {
			o.SuspiciousTLDs = tlds
		}
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(logger *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Analyzer applies the structural rules to a URL record.
// An Analyzer is safe for concurrent use once construction and Register
// calls are complete.
type Analyzer struct {
	rules    []Rule
	keywords *KeywordMatcher
	logger   *slog.Logger
}

// NewAnalyzer creates an Analyzer with the built-in rules registered in order:
// at-sign, dashed domain, numeric IP, subdomains, length, keywords and,
// when enabled, suspicious TLD and mixed protocol.
func NewAnalyzer(opts ...func(*Options)) *Analyzer {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	a := &Analyzer{
		rules:    make([]Rule, 0),
		keywords: NewKeywordMatcher(options.Keywords),
		logger:   options.Logger,
	}

	a.Register(atSignRule())
	a.Register(dashedDomainRule())
	a.Register(numericIPRule())
	a.Register(subdomainRule())
	a.Register(lengthRule())
	a.Register(keywordRule(a.keywords))

	if options.ExtendedRules {
		a.Register(suspiciousTLDRule(options.SuspiciousTLDs))
		a.Register(mixedProtocolRule())
	}

	return a
}

// Register appends a rule. Rules run in registration order.
func (a *Analyzer) Register(rule Rule) {
	a.rules = append(a.rules, rule)
}

// Rules returns the registered rules.
func (a *Analyzer) Rules() []Rule {
	return append([]Rule(nil), a.rules...)
}

// Name returns the signal name.
func (a *Analyzer) Name() model.SignalName {
	return model.SignalHeuristic
}

// Analyze scores rec. It always returns a result: success with the
// remaining score, or an error result tagged SERVER_ERROR when the analysis
// itself fails.
func (a *Analyzer) Analyze(rec *model.URLRecord) (result model.SignalResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("heuristic analysis panicked", "panic", r)
			result = model.Failure(model.SignalHeuristic,
				fmt.Errorf("%w: %v", ErrInternal, r), model.ThreatServerError)
		}
		result = result.WithDuration(time.Since(start))
	}()

	if rec == nil {
		return model.Failure(model.SignalHeuristic, ErrNilRecord, model.ThreatServerError)
	}

	if !HasValidTLD(rec) {
		a.logger.Debug("invalid top-level domain", "host", rec.Host)
		return model.Success(model.SignalHeuristic, model.MinScore, model.ThreatInvalidDomain)
	}

	score := startScore
	threats := make([]model.ThreatTag, 0, len(a.rules))
	for _, rule := range a.rules {
		if !rule.Match(rec) {
			continue
		}
		score -= rule.Deduction()
		threats = append(threats, rule.Tag())
		a.logger.Debug("heuristic rule matched",
			"rule", rule.Name(),
			"deduction", rule.Deduction())
	}

	return model.Success(model.SignalHeuristic, score, threats...)
}
