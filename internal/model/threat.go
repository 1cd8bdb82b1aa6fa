package model

import (
	"slices"
)

// ThreatTag identifies a detected phishing indicator.
// The set of tags is closed; ThreatTagsVersion is bumped whenever a tag is
// added or removed so that stored results can be interpreted later.
type ThreatTag string

// ThreatTagsVersion is the version of the ThreatTag enumeration.
const ThreatTagsVersion = 2

// Threat tags, in canonical order. Every emitted tag list follows this order.
const (
	// ThreatInvalidProtocol is reported when the scheme is not http or https.
	ThreatInvalidProtocol ThreatTag = "INVALID_PROTOCOL"
	// ThreatInvalidDomain is reported when the host is missing or has no valid TLD.
	ThreatInvalidDomain ThreatTag = "INVALID_DOMAIN"
	// ThreatBlacklisted is reported when a reputation source confirms the URL.
	ThreatBlacklisted ThreatTag = "BLACKLISTED"
	// ThreatNumericIP is reported for dotted-quad IPv4 hosts.
	ThreatNumericIP ThreatTag = "NUMERIC_IP"
	// ThreatSuspiciousAt is reported when the URL contains '@'.
	ThreatSuspiciousAt ThreatTag = "SUSPICIOUS_AT"
	// ThreatDashedDomain is reported when the host contains '-'.
	ThreatDashedDomain ThreatTag = "DASHED_DOMAIN"
	// ThreatTooManySubdomains is reported when the host has more than three dots.
	ThreatTooManySubdomains ThreatTag = "TOO_MANY_SUBDOMAINS"
	// ThreatTooLong is reported when the URL is longer than 100 characters.
	ThreatTooLong ThreatTag = "TOO_LONG"
	// ThreatSuspiciousKeywords is reported when a lure keyword appears in the URL.
	ThreatSuspiciousKeywords ThreatTag = "SUSPICIOUS_KEYWORDS"
	// ThreatSuspiciousTLD is reported for TLDs that are cheap and abused.
	ThreatSuspiciousTLD ThreatTag = "SUSPICIOUS_TLD"
	// ThreatMixedProtocol is reported when both http:// and https:// appear in the URL.
	ThreatMixedProtocol ThreatTag = "MIXED_PROTOCOL"
	// ThreatMLPhishingLikely is reported when the classifier ensemble votes phishing.
	ThreatMLPhishingLikely ThreatTag = "ML_PHISHING_LIKELY"
	// ThreatServerError is reported when a signal failed internally.
	ThreatServerError ThreatTag = "SERVER_ERROR"
)

var threatOrder = []ThreatTag{
	ThreatInvalidProtocol,
	ThreatInvalidDomain,
	ThreatBlacklisted,
	ThreatNumericIP,
	ThreatSuspiciousAt,
	ThreatDashedDomain,
	ThreatTooManySubdomains,
	ThreatTooLong,
	ThreatSuspiciousKeywords,
	ThreatSuspiciousTLD,
	ThreatMixedProtocol,
	ThreatMLPhishingLikely,
	ThreatServerError,
}

// AllThreatTags returns every known tag in canonical order.
func AllThreatTags() []ThreatTag {
	return slices.Clone(threatOrder)
}

// Valid reports whether t belongs to the enumeration.
func (t ThreatTag) Valid() bool {
	return slices.Contains(threatOrder, t)
}

// String returns the tag as it appears on the wire.
func (t ThreatTag) String() string {
	return string(t)
}

// Severity returns the severity assigned to the tag.
func (t ThreatTag) Severity() Severity {
	return GetThreatInfo(t).Severity
}

func (t ThreatTag) rank() int {
	if i := slices.Index(threatOrder, t); i >= 0 {
		return i
	}
	return len(threatOrder)
}

// ThreatInfo contains metadata about a threat tag including severity,
// a description and a recommendation shown to end users.
type ThreatInfo struct {
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

// threatInfoMapping maps threat tags to their metadata.
var threatInfoMapping = map[ThreatTag]ThreatInfo{
	ThreatInvalidProtocol: {
		Severity:       SeverityCritical,
		Description:    "The link does not use http or https and cannot be a regular web page.",
		Recommendation: "Do not open links with unexpected schemes such as javascript: or data:.",
	},
	ThreatInvalidDomain: {
		Severity:       SeverityCritical,
		Description:    "The host is missing or does not end in a recognised top-level domain.",
		Recommendation: "Verify the address manually before visiting.",
	},
	ThreatBlacklisted: {
		Severity:       SeverityCritical,
		Description:    "The URL appears on a known phishing blacklist.",
		Recommendation: "Do not visit the link and report the message that contained it.",
	},
	ThreatNumericIP: {
		Severity:       SeverityHigh,
		Description:    "The link points to a raw IP address instead of a domain name.",
		Recommendation: "Legitimate services rarely use IP addresses; avoid entering credentials.",
	},
	ThreatSuspiciousAt: {
		Severity:       SeverityHigh,
		Description:    "The link contains '@', which can hide the real destination host.",
		Recommendation: "Read the part after '@' carefully; that is where the browser will go.",
	},
	ThreatDashedDomain: {
		Severity:       SeverityLow,
		Description:    "The host contains hyphens, often used to imitate brand names.",
		Recommendation: "Compare the domain with the official one of the brand.",
	},
	ThreatTooManySubdomains: {
		Severity:       SeverityMedium,
		Description:    "The host has an unusually deep chain of subdomains.",
		Recommendation: "Check the registrable domain at the end of the host name.",
	},
	ThreatTooLong: {
		Severity:       SeverityLow,
		Description:    "The link is unusually long, which can hide its real target.",
		Recommendation: "Inspect the full link before following it.",
	},
	ThreatSuspiciousKeywords: {
		Severity:       SeverityMedium,
		Description:    "The link contains words commonly used in phishing lures.",
		Recommendation: "Navigate to the service directly instead of following the link.",
	},
	ThreatSuspiciousTLD: {
		Severity:       SeverityMedium,
		Description:    "The top-level domain is frequently abused for throwaway phishing sites.",
		Recommendation: "Treat the site with extra caution.",
	},
	ThreatMixedProtocol: {
		Severity:       SeverityMedium,
		Description:    "The link embeds another URL with a different scheme.",
		Recommendation: "Check for open redirects before trusting the destination.",
	},
	ThreatMLPhishingLikely: {
		Severity:       SeverityHigh,
		Description:    "The machine-learning ensemble classifies the link as likely phishing.",
		Recommendation: "Avoid entering any personal information on the site.",
	},
	ThreatServerError: {
		Severity:       SeverityInfo,
		Description:    "One of the checks failed internally; the result may be incomplete.",
		Recommendation: "Retry the scan later.",
	},
}

// GetThreatInfo returns the metadata for a tag.
// Unknown tags are reported as informational.
func GetThreatInfo(t ThreatTag) ThreatInfo {
	if info, ok := threatInfoMapping[t]; ok {
		return info
	}
	return ThreatInfo{
		Severity:       SeverityInfo,
		Description:    "Unknown threat indicator.",
		Recommendation: "Review manually.",
	}
}

// MergeThreats returns the deduplicated union of the given tag lists in
// canonical order. The result is never nil.
func MergeThreats(lists ...[]ThreatTag) []ThreatTag {
	seen := make(map[ThreatTag]struct{})
	merged := make([]ThreatTag, 0)
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	slices.SortStableFunc(merged, func(a, b ThreatTag) int {
		return a.rank() - b.rank()
	})
	return merged
}

// MaxSeverity returns the highest severity among tags, or SeverityInfo for none.
func MaxSeverity(tags []ThreatTag) Severity {
	highest := SeverityInfo
	for _, t := range tags {
		if s := t.Severity(); s > highest {
			highest = s
		}
	}
	return highest
}
