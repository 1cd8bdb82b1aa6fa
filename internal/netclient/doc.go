// Package netclient builds the outbound HTTP clients used to download
// blacklist feeds and to query reputation APIs.
//
// Traffic can optionally be routed through a SOCKS5 proxy (for example a
// local Tor daemon or a corporate egress proxy) so that lookups do not
// reveal the scanning host to feed operators.
package netclient
