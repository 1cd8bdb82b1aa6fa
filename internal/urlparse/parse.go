package urlparse

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/nao1215/phishscan/internal/model"
)

// webSchemes are the only schemes that may be scored.
var webSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
}

// Parse decomposes raw into a URLRecord.
//
// Surrounding whitespace is trimmed. Empty input, input containing control
// characters and input rejected by net/url yield ErrMalformedURL. A record
// whose scheme is not http/https or whose host is empty is returned inside a
// *DisqualifiedError.
func Parse(raw string) (*model.URLRecord, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedURL)
	}
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformedURL)
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return nil, fmt.Errorf("%w: control character in input", ErrMalformedURL)
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	rec := &model.URLRecord{
		Raw:      s,
		Scheme:   strings.ToLower(u.Scheme),
		Host:     NormalizeHost(u.Hostname()),
		Port:     u.Port(),
		Path:     u.EscapedPath(),
		RawQuery: u.RawQuery,
		Fragment: u.Fragment,
		Length:   utf8.RuneCountInString(s),
	}
	if u.User != nil {
		rec.UserInfo = u.User.String()
	}

	if _, ok := webSchemes[rec.Scheme]; !ok || rec.Host == "" {
		return nil, &DisqualifiedError{
			Record:  rec,
			Threats: []model.ThreatTag{model.ThreatInvalidProtocol, model.ThreatInvalidDomain},
		}
	}
	return rec, nil
}

// NormalizeHost lower-cases host, strips a trailing root dot and converts
// internationalized names to ASCII. When IDNA conversion fails the
// lower-cased host is returned unchanged so that later checks can judge it.
func NormalizeHost(host string) string {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	if h == "" || net.ParseIP(h) != nil {
		return h
	}
	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil {
		return h
	}
	return ascii
}
