package heuristic

import (
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/phishscan/internal/model"
)

// DefaultSuspiciousTLDs are top-level domains commonly registered for
// throwaway phishing sites.
var DefaultSuspiciousTLDs = []string{
	"xyz", "top", "work", "live", "world", "site",
	"online", "click", "tk", "ml", "ga", "cf",
}

// HasValidTLD reports whether rec's host may be scored.
// IPv4 literals are accepted so that the numeric-IP rule can apply.
// Other hosts need a public suffix managed by ICANN (or a private suffix
// below one) and a registrable label in front of it.
func HasValidTLD(rec *model.URLRecord) bool {
	host := rec.Host
	if host == "" {
		return false
	}
	if rec.IsIPv4Host() {
		return true
	}
	if rec.IsIPHost() || !strings.Contains(host, ".") {
		return false
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann && !strings.Contains(suffix, ".") {
		return false
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return false
	}
	return true
}

// TLD returns the last label of host.
func TLD(host string) string {
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		return host[i+1:]
	}
	return host
}
