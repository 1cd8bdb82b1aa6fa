package features

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/phishscan/internal/urlparse"
)

// TestNames tests the catalogue shape.
func TestNames(t *testing.T) {
	t.Parallel()

	n := Names()
	if len(n) != Dimension {
		t.Fatalf("len(Names()) = %d, expected %d", len(n), Dimension)
	}
	seen := make(map[string]bool)
	for _, name := range n {
		if seen[name] {
			t.Errorf("duplicate feature name %q", name)
		}
		seen[name] = true
	}
	if n[0] != "url_length" || n[Dimension-1] != "shortener_host" {
		t.Errorf("unexpected catalogue order: %v", n)
	}
}

// TestExtract tests individual feature values.
func TestExtract(t *testing.T) {
	t.Parallel()

	v, err := ExtractRaw("https://secure.login.example.com:8443/a//b?x=1&y=2")
	if err != nil {
		t.Fatalf("ExtractRaw() error = %v", err)
	}
	if len(v) != Dimension {
		t.Fatalf("len(vector) = %d, expected %d", len(v), Dimension)
	}

	m := v.Map()
	expected := map[string]float64{
		"host_length":       float64(len("secure.login.example.com")) / 50,
		"path_length":       float64(len("/a//b")) / 50,
		"query_length":      float64(len("x=1&y=2")) / 50,
		"host_dot_count":    3.0 / 5,
		"question_count":    1.0 / 3,
		"equals_count":      2.0 / 5,
		"ampersand_count":   1.0 / 5,
		"digit_count":       6.0 / 20,
		"host_digit_count":  0,
		"ip_host":           0,
		"https":             1,
		"explicit_port":     1,
		"path_double_slash": 1,
		"kw_redirect":       0,
		"kw_login":          1,
		"kw_secure":         1,
		"kw_bank":           0,
		"subdomain_count":   2.0 / 3,
		"shortener_host":    0,
	}
	for name, want := range expected {
		if got := m[name]; got != want {
			t.Errorf("%s = %v, expected %v", name, got, want)
		}
	}
}

// TestExtractIPAndShortener tests binary indicators.
func TestExtractIPAndShortener(t *testing.T) {
	t.Parallel()

	v, err := ExtractRaw("http://10.0.0.1/x")
	if err != nil {
		t.Fatalf("ExtractRaw() error = %v", err)
	}
	m := v.Map()
	if m["ip_host"] != 1 || m["https"] != 0 || m["subdomain_count"] != 0 {
		t.Errorf("unexpected IP features: %v", m)
	}
	if m["host_digit_count"] != 4.0/10 {
		t.Errorf("host_digit_count = %v", m["host_digit_count"])
	}

	v, err = ExtractRaw("https://bit.ly/3abc")
	if err != nil {
		t.Fatalf("ExtractRaw() error = %v", err)
	}
	if v.Map()["shortener_host"] != 1 {
		t.Error("expected shortener_host = 1")
	}
}

// TestExtractUnclamped tests that values may exceed 1.
func TestExtractUnclamped(t *testing.T) {
	t.Parallel()

	raw := "https://example.com/" + strings.Repeat("-", 300)
	v, err := ExtractRaw(raw)
	if err != nil {
		t.Fatalf("ExtractRaw() error = %v", err)
	}
	m := v.Map()
	if m["url_length"] != float64(len(raw))/100 {
		t.Errorf("url_length = %v", m["url_length"])
	}
	if m["url_length"] <= 1 || m["hyphen_count"] <= 1 {
		t.Errorf("expected unclamped values above 1, got %v and %v", m["url_length"], m["hyphen_count"])
	}
}

// TestExtractDeterministic tests that extraction is a pure function.
func TestExtractDeterministic(t *testing.T) {
	t.Parallel()

	rec, err := urlparse.Parse("http://login-bank-verify.xyz/secure?user=1@evil.com")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	first := Extract(rec)
	second := Extract(rec)
	if !slices.Equal(first, second) {
		t.Errorf("Extract() not deterministic: %v vs %v", first, second)
	}
}

// TestExtractRawPropagatesParseErrors tests error propagation.
func TestExtractRawPropagatesParseErrors(t *testing.T) {
	t.Parallel()

	if _, err := ExtractRaw(""); !errors.Is(err, urlparse.ErrMalformedURL) {
		t.Errorf("ExtractRaw(\"\") error = %v, expected ErrMalformedURL", err)
	}
	if _, err := ExtractRaw("ftp://example.com"); !errors.Is(err, urlparse.ErrDisqualified) {
		t.Errorf("ExtractRaw(ftp) error = %v, expected ErrDisqualified", err)
	}
}
