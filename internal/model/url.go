package model

import (
	"net"
	"strings"
)

// URLRecord is the structural decomposition of a caller-supplied URL.
// It is created per request, shared read-only by every signal and never persisted.
type URLRecord struct {
	// Raw is the input exactly as received, after trimming surrounding whitespace.
	Raw string `json:"raw"`

	// Scheme is the lower-cased scheme, possibly empty.
	Scheme string `json:"scheme"`

	// Host is the lower-cased host without port. Internationalized names are
	// converted to their ASCII (punycode) form when conversion succeeds.
	Host string `json:"host"`

	// Port is the explicit port, empty when none was given.
	Port string `json:"port,omitempty"`

	// Path is the escaped path.
	Path string `json:"path"`

	// RawQuery is the query without the leading '?'.
	RawQuery string `json:"raw_query,omitempty"`

	// Fragment is the fragment without the leading '#'.
	Fragment string `json:"fragment,omitempty"`

	// UserInfo is the userinfo section before '@' in the authority, if any.
	UserInfo string `json:"-"`

	// Length is the length of Raw in characters.
	Length int `json:"length"`
}

// IsIPHost reports whether the host is an IP literal (v4 or v6).
func (r *URLRecord) IsIPHost() bool {
	return net.ParseIP(r.Host) != nil
}

// IsIPv4Host reports whether the host is a dotted-quad IPv4 address.
func (r *URLRecord) IsIPv4Host() bool {
	ip := net.ParseIP(r.Host)
	return ip != nil && ip.To4() != nil && !strings.Contains(r.Host, ":")
}
