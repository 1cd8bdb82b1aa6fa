package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// TestNewAPISource tests endpoint validation.
func TestNewAPISource(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "ftp://rep.example", "http://", "::bad"} {
		if _, err := NewAPISource(endpoint, nil); !errors.Is(err, ErrInvalidEndpoint) {
			t.Errorf("NewAPISource(%q) error = %v, expected ErrInvalidEndpoint", endpoint, err)
		}
	}
	if _, err := NewAPISource("https://rep.example/v1/check", nil); err != nil {
		t.Errorf("NewAPISource() error = %v", err)
	}
}

// TestAPISourceLookup tests request encoding and response handling.
func TestAPISourceLookup(t *testing.T) {
	t.Parallel()

	rec := &model.URLRecord{Raw: "http://evil.example/login", Host: "evil.example"}

	t.Run("hit", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, expected POST", r.Method)
			}
			var req apiRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Verdict{Hit: req.URL == rec.Raw, Source: "vendor"})
		}))
		t.Cleanup(srv.Close)

		src, err := NewAPISource(srv.URL, srv.Client())
		if err != nil {
			t.Fatal(err)
		}
		v, err := src.Lookup(context.Background(), rec)
		if err != nil || !v.Hit || v.Source != "vendor" {
			t.Errorf("Lookup() = %+v, %v; expected vendor hit", v, err)
		}
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		src, _ := NewAPISource(srv.URL, srv.Client())
		_, err := src.Lookup(context.Background(), rec)
		if !errors.Is(err, ErrUnavailable) || !errors.Is(err, ErrFeedStatus) {
			t.Errorf("Lookup() error = %v, expected ErrUnavailable wrapping ErrFeedStatus", err)
		}
	})

	t.Run("malformed body is unavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		t.Cleanup(srv.Close)

		src, _ := NewAPISource(srv.URL, srv.Client())
		if _, err := src.Lookup(context.Background(), rec); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Lookup() error = %v, expected ErrUnavailable", err)
		}
	})

	t.Run("body without a verdict is unavailable", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{"{}", "null", `{"source":"vendor"}`} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))

			src, _ := NewAPISource(srv.URL, srv.Client())
			v, err := src.Lookup(context.Background(), rec)
			srv.Close()
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("Lookup() with body %s = %+v, %v; expected ErrUnavailable", body, v, err)
			}
		}
	})

	t.Run("explicit miss", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"hit":false}`))
		}))
		t.Cleanup(srv.Close)

		src, _ := NewAPISource(srv.URL, srv.Client())
		v, err := src.Lookup(context.Background(), rec)
		if err != nil || v.Hit || v.Source != "api" {
			t.Errorf("Lookup() = %+v, %v; expected api miss", v, err)
		}
	})

	t.Run("deadline is honoured", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		src, _ := NewAPISource(srv.URL, srv.Client())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := src.Lookup(ctx, rec); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Lookup() error = %v, expected ErrUnavailable", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(Verdict{})
		}))
		t.Cleanup(srv.Close)

		src, _ := NewAPISource(srv.URL, srv.Client(), WithRateLimit(0.001, 1))
		if _, err := src.Lookup(context.Background(), rec); err != nil {
			t.Fatalf("first Lookup() error = %v", err)
		}
		if _, err := src.Lookup(context.Background(), rec); !errors.Is(err, ErrUnavailable) {
			t.Errorf("second Lookup() error = %v, expected rate-limit unavailability", err)
		}
	})
}
