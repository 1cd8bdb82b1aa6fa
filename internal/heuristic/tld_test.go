package heuristic

import (
	"testing"

	"github.com/nao1215/phishscan/internal/model"
)

// TestHasValidTLD tests TLD validation.
func TestHasValidTLD(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host     string
		expected bool
	}{
		{"example.com", true},
		{"www.example.co.uk", true},
		{"login-bank-verify.xyz", true},
		{"foo.blogspot.com", true},
		{"192.168.1.1", true},
		{"example.notarealtld", false},
		{"localhost", false},
		{"co.uk", false},
		{"::1", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.host, func(t *testing.T) {
			t.Parallel()
			rec := &model.URLRecord{Host: tc.host}
			if got := HasValidTLD(rec); got != tc.expected {
				t.Errorf("HasValidTLD(%q) = %v, expected %v", tc.host, got, tc.expected)
			}
		})
	}
}

// TestTLD tests last-label extraction.
func TestTLD(t *testing.T) {
	t.Parallel()

	if got := TLD("a.b.example.xyz"); got != "xyz" {
		t.Errorf("TLD() = %q", got)
	}
	if got := TLD("localhost"); got != "localhost" {
		t.Errorf("TLD() = %q", got)
	}
}
