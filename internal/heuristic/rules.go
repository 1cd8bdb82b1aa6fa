package heuristic

import (
	"slices"
	"strings"

	"github.com/nao1215/phishscan/internal/model"
)

// Deductions applied by the built-in rules.
const (
	DeductionAt            = 20.0
	DeductionDashedDomain  = 15.0
	DeductionNumericIP     = 30.0
	DeductionSubdomains    = 10.0
	DeductionTooLong       = 10.0
	DeductionKeywords      = 15.0
	DeductionSuspiciousTLD = 10.0
	DeductionMixedProtocol = 10.0
)

const (
	// maxHostDots is the number of dots a host may contain before it counts
	// as having too many subdomains.
	maxHostDots = 3

	// maxURLLength is the character length above which a URL is too long.
	maxURLLength = 100
)

// Rule is a single structural check applied by the Analyzer.
// Deduction must be non-negative.
type Rule interface {
	// Name returns the rule name for logging.
	Name() string

	// Tag returns the threat tag reported when the rule matches.
	Tag() model.ThreatTag

	// Deduction returns the points subtracted when the rule matches.
	Deduction() float64

	// Match reports whether the rule applies to rec.
	Match(rec *model.URLRecord) bool
}

// RuleFunc adapts a predicate into a Rule.
type RuleFunc struct {
	RuleName  string
	ThreatTag model.ThreatTag
	Points    float64
	Predicate func(rec *model.URLRecord) bool
}

// Name returns the rule name.
func (r RuleFunc) Name() string { return r.RuleName }

// Tag returns the rule's threat tag.
func (r RuleFunc) Tag() model.ThreatTag { return r.ThreatTag }

// Deduction returns the rule's deduction.
func (r RuleFunc) Deduction() float64 { return r.Points }

// Match evaluates the predicate.
func (r RuleFunc) Match(rec *model.URLRecord) bool { return r.Predicate(rec) }

func atSignRule() Rule {
	return RuleFunc{
		RuleName:  "at_sign",
		ThreatTag: model.ThreatSuspiciousAt,
		Points:    DeductionAt,
		Predicate: func(rec *model.URLRecord) bool {
			return strings.Contains(rec.Raw, "@")
		},
	}
}

func dashedDomainRule() Rule {
	return RuleFunc{
		RuleName:  "dashed_domain",
		ThreatTag: model.ThreatDashedDomain,
		Points:    DeductionDashedDomain,
		Predicate: func(rec *model.URLRecord) bool {
			return strings.Contains(rec.Host, "-")
		},
	}
}

func numericIPRule() Rule {
	return RuleFunc{
		RuleName:  "numeric_ip",
		ThreatTag: model.ThreatNumericIP,
		Points:    DeductionNumericIP,
		Predicate: func(rec *model.URLRecord) bool {
			return rec.IsIPv4Host()
		},
	}
}

func subdomainRule() Rule {
	return RuleFunc{
		RuleName:  "too_many_subdomains",
		ThreatTag: model.ThreatTooManySubdomains,
		Points:    DeductionSubdomains,
		Predicate: func(rec *model.URLRecord) bool {
			return strings.Count(rec.Host, ".") > maxHostDots
		},
	}
}

func lengthRule() Rule {
	return RuleFunc{
		RuleName:  "too_long",
		ThreatTag: model.ThreatTooLong,
		Points:    DeductionTooLong,
		Predicate: func(rec *model.URLRecord) bool {
			return rec.Length > maxURLLength
		},
	}
}

func keywordRule(m *KeywordMatcher) Rule {
	return RuleFunc{
		RuleName:  "suspicious_keywords",
		ThreatTag: model.ThreatSuspiciousKeywords,
		Points:    DeductionKeywords,
		Predicate: func(rec *model.URLRecord) bool {
			return m.Contains(rec.Raw)
		},
	}
}

func suspiciousTLDRule(tlds []string) Rule {
	set := make([]string, 0, len(tlds))
	for _, tld := range tlds {
		set = append(set, strings.TrimPrefix(strings.ToLower(tld), "."))
	}
	return RuleFunc{
		RuleName:  "suspicious_tld",
		ThreatTag: model.ThreatSuspiciousTLD,
		Points:    DeductionSuspiciousTLD,
		Predicate: func(rec *model.URLRecord) bool {
			return slices.Contains(set, TLD(rec.Host))
		},
	}
}

func mixedProtocolRule() Rule {
	return RuleFunc{
		RuleName:  "mixed_protocol",
		ThreatTag: model.ThreatMixedProtocol,
		Points:    DeductionMixedProtocol,
		Predicate: func(rec *model.URLRecord) bool {
			lower := strings.ToLower(rec.Raw)
			return strings.Contains(lower, "http://") && strings.Contains(lower, "https://")
		},
	}
}
