package heuristic

import (
	"slices"
	"sync"
	"testing"
)

// TestKeywordMatcher tests keyword detection.
func TestKeywordMatcher(t *testing.T) {
	t.Parallel()

	m := NewKeywordMatcher([]string{"Login", "bank", "", "login"})

	if got := m.Keywords(); !slices.Equal(got, []string{"login", "bank"}) {
		t.Errorf("Keywords() = %v", got)
	}

	found := m.Find("https://BANK.example.com/LogIn")
	slices.Sort(found)
	if !slices.Equal(found, []string{"bank", "login"}) {
		t.Errorf("Find() = %v", found)
	}

	if m.Contains("https://example.com") {
		t.Error("expected no match")
	}
}

// TestKeywordMatcherEmpty tests a matcher without keywords.
func TestKeywordMatcherEmpty(t *testing.T) {
	t.Parallel()

	m := NewKeywordMatcher(nil)
	if m.Contains("login") {
		t.Error("empty matcher must never match")
	}
}

// TestKeywordMatcherConcurrent tests that concurrent callers each get their
// own complete result.
func TestKeywordMatcherConcurrent(t *testing.T) {
	t.Parallel()

	m := NewKeywordMatcher(DefaultKeywords)
	inputs := []struct {
		url      string
		expected []string
	}{
		{"https://example.com/VERIFY", []string{"verify"}},
		{"https://secure-bank.example/login", []string{"bank", "login", "secure"}},
		{"https://example.com/about", nil},
	}

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := inputs[g%len(inputs)]
			for range 200 {
				found := m.Find(in.url)
				slices.Sort(found)
				if !slices.Equal(found, in.expected) {
					t.Errorf("Find(%q) = %v, expected %v", in.url, found, in.expected)
					return
				}
			}
		}()
	}
	wg.Wait()
}
