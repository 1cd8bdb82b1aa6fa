package model

import (
	"fmt"
	"strings"
)

// Severity represents the risk level carried by a threat tag.
// Severities are ordered so that findings can be sorted and compared.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct risk.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor indicators that are common on legitimate sites too.
	// Examples: long URLs, hyphenated hosts.
	SeverityLow

	// SeverityMedium indicates indicators that phishing kits rely on.
	// Examples: deep subdomain chains, lure keywords.
	SeverityMedium

	// SeverityHigh indicates strong structural evidence of phishing.
	// Examples: credentials-style '@' obfuscation, raw IP hosts.
	SeverityHigh

	// SeverityCritical indicates confirmed or disqualifying evidence.
	// Examples: blacklist hits, non-web schemes.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name produced by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "INFO":
		*s = SeverityInfo
	case "LOW":
		*s = SeverityLow
	case "MEDIUM":
		*s = SeverityMedium
	case "HIGH":
		*s = SeverityHigh
	case "CRITICAL":
		*s = SeverityCritical
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}
