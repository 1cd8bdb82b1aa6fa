// Package urlparse decomposes raw URL strings into model.URLRecord values.
//
// Parsing distinguishes two failure classes. Input that cannot be decomposed
// at all is malformed (ErrMalformedURL) and no signal may run on it. Input
// that decomposes but is not a web URL (scheme other than http/https, or no
// host) is disqualified (ErrDisqualified): the caller reports it immediately
// with INVALID_PROTOCOL and INVALID_DOMAIN instead of running the signals.
//
// The package performs no network access.
package urlparse
