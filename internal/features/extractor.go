package features

import (
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/urlparse"
)

// Dimension is the length of every feature vector.
const Dimension = 30

// Vector is one URL's feature vector.
type Vector []float64

// Normalisation divisors.
const (
	urlLengthDivisor   = 100.0
	hostLengthDivisor  = 50.0
	pathLengthDivisor  = 50.0
	queryLengthDivisor = 50.0
	dotDivisor         = 5.0
	hyphenDivisor      = 5.0
	underscoreDivisor  = 5.0
	slashDivisor       = 10.0
	questionDivisor    = 3.0
	equalsDivisor      = 5.0
	atDivisor          = 2.0
	ampersandDivisor   = 5.0
	digitDivisor       = 20.0
	hostDigitDivisor   = 10.0
	percentDivisor     = 10.0
	subdomainDivisor   = 3.0
)

// Keyword indicator features, in vector order.
var indicatorKeywords = []string{"redirect", "login", "signup", "account", "secure", "verify", "bank"}

// shorteners are hosts of well-known URL shortening services.
var shorteners = map[string]struct{}{
	"bit.ly":      {},
	"tinyurl.com": {},
	"goo.gl":      {},
	"t.co":        {},
	"ow.ly":       {},
	"is.gd":       {},
	"buff.ly":     {},
	"cutt.ly":     {},
	"rebrand.ly":  {},
	"tiny.cc":     {},
}

var names = []string{
	"url_length",
	"host_length",
	"path_length",
	"query_length",
	"dot_count",
	"host_dot_count",
	"hyphen_count",
	"host_hyphen_count",
	"underscore_count",
	"slash_count",
	"question_count",
	"equals_count",
	"at_count",
	"ampersand_count",
	"digit_count",
	"host_digit_count",
	"percent_count",
	"ip_host",
	"https",
	"explicit_port",
	"path_double_slash",
	"kw_redirect",
	"kw_login",
	"kw_signup",
	"kw_account",
	"kw_secure",
	"kw_verify",
	"kw_bank",
	"subdomain_count",
	"shortener_host",
}

// Names returns the feature names in vector order.
func Names() []string {
	return append([]string(nil), names...)
}

// Extract builds the feature vector for rec.
func Extract(rec *model.URLRecord) Vector {
	raw := rec.Raw
	lower := strings.ToLower(raw)
	host := rec.Host

	v := make(Vector, 0, Dimension)
	v = append(v,
		float64(rec.Length)/urlLengthDivisor,
		float64(len(host))/hostLengthDivisor,
		float64(len(rec.Path))/pathLengthDivisor,
		float64(len(rec.RawQuery))/queryLengthDivisor,
		count(raw, '.')/dotDivisor,
		count(host, '.')/dotDivisor,
		count(raw, '-')/hyphenDivisor,
		count(host, '-')/hyphenDivisor,
		count(raw, '_')/underscoreDivisor,
		count(raw, '/')/slashDivisor,
		count(raw, '?')/questionDivisor,
		count(raw, '=')/equalsDivisor,
		count(raw, '@')/atDivisor,
		count(raw, '&')/ampersandDivisor,
		digits(raw)/digitDivisor,
		digits(host)/hostDigitDivisor,
		count(raw, '%')/percentDivisor,
		indicator(rec.IsIPHost()),
		indicator(rec.Scheme == "https"),
		indicator(rec.Port != ""),
		indicator(strings.Contains(rec.Path, "//")),
	)
	for _, kw := range indicatorKeywords {
		v = append(v, indicator(strings.Contains(lower, kw)))
	}
	v = append(v,
		float64(subdomains(rec))/subdomainDivisor,
		indicator(isShortener(host)),
	)
	return v
}

// ExtractRaw parses raw and builds its feature vector. Parse failures,
// including disqualification, are returned unchanged.
func ExtractRaw(raw string) (Vector, error) {
	rec, err := urlparse.Parse(raw)
	if err != nil {
		return nil, err
	}
	return Extract(rec), nil
}

// Map returns the vector keyed by feature name.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, val := range v {
		if i < len(names) {
			m[names[i]] = val
		}
	}
	return m
}

func count(s string, c rune) float64 {
	return float64(strings.Count(s, string(c)))
}

func digits(s string) float64 {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return float64(n)
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// subdomains counts the labels left of the registrable domain.
func subdomains(rec *model.URLRecord) int {
	if rec.Host == "" || rec.IsIPHost() {
		return 0
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(rec.Host)
	if err != nil || len(registrable) >= len(rec.Host) {
		return 0
	}
	prefix := strings.TrimSuffix(rec.Host[:len(rec.Host)-len(registrable)], ".")
	if prefix == "" {
		return 0
	}
	return strings.Count(prefix, ".") + 1
}

func isShortener(host string) bool {
	_, ok := shorteners[strings.TrimPrefix(host, "www.")]
	return ok
}
