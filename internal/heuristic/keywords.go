package heuristic

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
)

// DefaultKeywords are the lure words checked by the keyword rule.
var DefaultKeywords = []string{
	"login",
	"verify",
	"bank",
	"secure",
	"account",
	"update",
	"signin",
	"password",
	"confirm",
	"suspended",
	"unlock",
	"payment",
	"billing",
	"wallet",
}

// KeywordMatcher finds configured keywords anywhere in a string,
// ignoring case. It builds one Aho-Corasick automaton so a URL is scanned
// once regardless of the number of keywords. It is safe for concurrent use
// without locking.
type KeywordMatcher struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	// folders holds cases.Caser values, which keep state between calls.
	folders sync.Pool
}

// NewKeywordMatcher builds a matcher. Blank and duplicate keywords are dropped.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{}
	m.folders.New = func() any {
		c := cases.Fold()
		return &c
	}

	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		normalized := m.fold(strings.TrimSpace(kw))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		m.keywords = append(m.keywords, normalized)
	}

	if len(m.keywords) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(m.keywords)
	}
	return m
}

// Keywords returns the normalised keyword list.
func (m *KeywordMatcher) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Find returns the distinct keywords contained in s.
func (m *KeywordMatcher) Find(s string) []string {
	if m.matcher == nil || s == "" {
		return nil
	}

	hits := m.matcher.MatchThreadSafe([]byte(m.fold(s)))
	found := make([]string, 0, len(hits))
	for _, idx := range hits {
		if idx < len(m.keywords) {
			found = append(found, m.keywords[idx])
		}
	}
	return found
}

func (m *KeywordMatcher) fold(s string) string {
	c := m.folders.Get().(*cases.Caser)
	defer m.folders.Put(c)
	return c.String(s)
}

// Contains reports whether s contains any keyword.
func (m *KeywordMatcher) Contains(s string) bool {
	return len(m.Find(s)) > 0
}
