// Package main provides the entry point for the phishscan CLI.
//
// phishscan scores URLs for phishing risk by combining rule-based heuristics,
// a blacklist lookup and a machine-learned classifier.
//
// Usage:
//
//	phishscan score <url>...
//	phishscan score --list <file>
//	phishscan serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
