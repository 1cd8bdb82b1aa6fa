package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/reputation"
	"github.com/nao1215/phishscan/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scorerFunc adapts a function to pipeline.Scorer.
type scorerFunc func(ctx context.Context, raw string) (*model.AggregateResult, error)

func (f scorerFunc) ScoreURL(ctx context.Context, raw string) (*model.AggregateResult, error) {
	return f(ctx, raw)
}

// fakeScorer scores "bad" URLs low, rejects "malformed" and fails "down".
func fakeScorer() pipeline.Scorer {
	return scorerFunc(func(_ context.Context, raw string) (*model.AggregateResult, error) {
		switch {
		case strings.Contains(raw, "malformed"):
			return nil, fmt.Errorf("%w: %q", pipeline.ErrMalformedURL, raw)
		case strings.Contains(raw, "down"):
			return nil, &pipeline.AggregateError{URL: raw, Outcomes: []model.SignalOutcome{
				model.NewSignalOutcome(model.Unavailable(model.SignalReputation, "timeout")),
			}}
		case strings.Contains(raw, "panic"):
			panic("scorer exploded")
		}
		score := 95.0
		var threats []model.ThreatTag
		if strings.Contains(raw, "bad") {
			score = 20
			threats = []model.ThreatTag{model.ThreatSuspiciousKeywords}
		}
		return &model.AggregateResult{
			ID:          "id-" + raw,
			URL:         raw,
			FinalScore:  score,
			Threats:     model.MergeThreats(threats),
			SignalsUsed: []model.SignalName{model.SignalHeuristic},
			State:       model.StateDone,
			SafetyLevel: model.SafetyLevelFor(score),
			ScannedAt:   time.Now().UTC(),
		}, nil
	})
}

// memoryHistory is an in-memory HistoryStore.
type memoryHistory struct {
	mu      sync.Mutex
	saved   []*model.AggregateResult
	saveErr error
}

func (m *memoryHistory) Save(_ context.Context, res *model.AggregateResult) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saved = append(m.saved, res)
	return int64(len(m.saved)), nil
}

func (m *memoryHistory) History(_ context.Context, limit int) ([]database.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := []database.ScanRecord{}
	for i := len(m.saved) - 1; i >= 0 && (limit <= 0 || len(records) < limit); i-- {
		r := m.saved[i]
		records = append(records, database.ScanRecord{ScanID: r.ID, URL: r.URL, Score: r.FinalScore})
	}
	return records, nil
}

func (m *memoryHistory) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequestWithContext(t.Context(), method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestScanURL tests POST /api/scan-url.
func TestScanURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		body     any
		wantCode int
		wantText string
	}{
		{"benign", ScanRequest{URL: "https://example.com"}, http.StatusOK, `"score":95`},
		{"phishing", ScanRequest{URL: "http://bad-login.xyz"}, http.StatusOK, "SUSPICIOUS_KEYWORDS"},
		{"empty", ScanRequest{URL: "  "}, http.StatusBadRequest, "url cannot be empty"},
		{"invalid json", "{", http.StatusBadRequest, "invalid request body"},
		{"malformed", ScanRequest{URL: "malformed"}, http.StatusBadRequest, "malformed"},
		{"aggregate failure", ScanRequest{URL: "http://down.example"}, http.StatusServiceUnavailable, `"signals"`},
		{"panic", ScanRequest{URL: "http://panic.example"}, http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := NewServer(fakeScorer())
			w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("status = %d, expected %d: %s", w.Code, tc.wantCode, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantText) {
				t.Errorf("body %s does not contain %q", w.Body.String(), tc.wantText)
			}
		})
	}
}

// TestScanURLRecordsHistory tests that successful scans are saved.
func TestScanURLRecordsHistory(t *testing.T) {
	t.Parallel()

	t.Run("saves successful scans only", func(t *testing.T) {
		t.Parallel()

		store := &memoryHistory{}
		srv := NewServer(fakeScorer(), WithHistory(store))

		doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: "https://example.com"})
		doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: "malformed"})

		if store.count() != 1 {
			t.Errorf("saved %d scans, expected 1", store.count())
		}
	})

	t.Run("save failure does not fail the request", func(t *testing.T) {
		t.Parallel()

		store := &memoryHistory{saveErr: errors.New("disk full")}
		srv := NewServer(fakeScorer(), WithHistory(store))

		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: "https://example.com"})
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, expected 200", w.Code)
		}
	})
}

// TestScanBatch tests POST /api/scan-url/batch.
func TestScanBatch(t *testing.T) {
	t.Parallel()

	t.Run("results in input order with inline errors", func(t *testing.T) {
		t.Parallel()

		store := &memoryHistory{}
		srv := NewServer(fakeScorer(), WithHistory(store), WithBatchConcurrency(2))
		urls := []string{"https://example.com", "malformed", "http://bad.xyz"}

		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url/batch", BatchRequest{URLs: urls})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}

		var resp BatchResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(resp.Results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(resp.Results))
		}
		for i, u := range urls {
			if resp.Results[i].URL != u {
				t.Errorf("result %d URL = %q, expected %q", i, resp.Results[i].URL, u)
			}
		}
		if resp.Results[1].Error == "" || resp.Results[1].Result != nil {
			t.Errorf("expected inline error for malformed URL, got %+v", resp.Results[1])
		}
		if resp.Results[2].Result == nil || resp.Results[2].Result.FinalScore != 20 {
			t.Errorf("unexpected result %+v", resp.Results[2])
		}
		if store.count() != 2 {
			t.Errorf("saved %d scans, expected 2", store.count())
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer())
		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url/batch", BatchRequest{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, expected 400", w.Code)
		}
	})

	t.Run("too many urls", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer(), WithMaxBatchURLs(2))
		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url/batch",
			BatchRequest{URLs: []string{"a", "b", "c"}})
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "at most 2") {
			t.Errorf("status = %d body = %s", w.Code, w.Body.String())
		}
	})
}

// TestListHistory tests GET /api/history.
func TestListHistory(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer())
		w := doRequest(t, srv.Handler(), http.MethodGet, "/api/history", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, expected 503", w.Code)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		store := &memoryHistory{}
		srv := NewServer(fakeScorer(), WithHistory(store))
		for _, u := range []string{"https://a.com", "https://b.com", "https://c.com"} {
			doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: u})
		}

		w := doRequest(t, srv.Handler(), http.MethodGet, "/api/history?limit=2", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			History []database.ScanRecord `json:"history"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(resp.History) != 2 || resp.History[0].URL != "https://c.com" {
			t.Errorf("unexpected history %+v", resp.History)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer(), WithHistory(&memoryHistory{}))
		w := doRequest(t, srv.Handler(), http.MethodGet, "/api/history?limit=abc", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, expected 400", w.Code)
		}
	})

	t.Run("sqlite store", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		srv := NewServer(fakeScorer(), WithHistory(db))
		doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: "http://bad-login.xyz"})

		w := doRequest(t, srv.Handler(), http.MethodGet, "/api/history", nil)
		if !strings.Contains(w.Body.String(), "bad-login.xyz") {
			t.Errorf("expected stored scan in history: %s", w.Body.String())
		}
	})
}

// TestHealthAndReady tests the probe endpoints.
func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer(), WithVersion("v9.9.9"))
		w := doRequest(t, srv.Handler(), http.MethodGet, "/health", nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "v9.9.9") {
			t.Errorf("status = %d body = %s", w.Code, w.Body.String())
		}
	})

	t.Run("degraded without snapshot", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer(),
			WithReadyCheck("model", ModelCheck("abc123")),
			WithReadyCheck("snapshot", SnapshotCheck(reputation.NewSnapshotSource(true), time.Hour)),
		)
		w := doRequest(t, srv.Handler(), http.MethodGet, "/ready", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, expected 200", w.Code)
		}
		var resp HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp.Status != HealthStatusDegraded {
			t.Errorf("Status = %q, expected degraded", resp.Status)
		}
		if resp.Checks["model"].Message != "sha3-256:abc123" {
			t.Errorf("model check = %+v", resp.Checks["model"])
		}
	})

	t.Run("unhealthy check fails the probe", func(t *testing.T) {
		t.Parallel()

		srv := NewServer(fakeScorer(), WithReadyCheck("db", func() CheckResult {
			return CheckResult{Status: HealthStatusUnhealthy, Message: "locked"}
		}))
		w := doRequest(t, srv.Handler(), http.MethodGet, "/ready", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, expected 503", w.Code)
		}
	})
}

// TestSnapshotCheck tests snapshot readiness states.
func TestSnapshotCheck(t *testing.T) {
	t.Parallel()

	src := reputation.NewSnapshotSource(true)
	check := SnapshotCheck(src, time.Hour)

	if got := check(); got.Status != HealthStatusDegraded {
		t.Errorf("empty source status = %q, expected degraded", got.Status)
	}

	src.Store(reputation.NewSnapshot([]string{"evil.example"}, reputation.SnapshotMeta{
		Source:    "test",
		FetchedAt: time.Now(),
	}))
	if got := check(); got.Status != HealthStatusHealthy || !strings.Contains(got.Message, "1 entries") {
		t.Errorf("fresh snapshot = %+v", got)
	}

	src.Store(reputation.NewSnapshot([]string{"evil.example"}, reputation.SnapshotMeta{
		Source:    "test",
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}))
	if got := check(); got.Status != HealthStatusDegraded || !strings.HasPrefix(got.Message, "stale") {
		t.Errorf("stale snapshot = %+v", got)
	}

	if got := ModelCheck("")(); got.Status != HealthStatusDegraded {
		t.Errorf("ModelCheck(\"\") = %+v", got)
	}
}

// TestMetricsEndpoint tests that requests are counted per route.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(fakeScorer(), WithMetrics(telemetry.New()))
	doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url", ScanRequest{URL: "https://example.com"})

	w := doRequest(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `phishscan_http_requests_total{code="200",route="/api/scan-url"} 1`) {
		t.Errorf("expected request counter in metrics output")
	}
}

// TestCORS tests origin handling.
func TestCORS(t *testing.T) {
	t.Parallel()

	srv := NewServer(fakeScorer(), WithAllowedOrigins("http://localhost:5173"))

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url",
			ScanRequest{URL: "https://example.com"}, "Origin", "http://localhost:5173")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, srv.Handler(), http.MethodOptions, "/api/scan-url", nil,
			"Origin", "http://localhost:5173")
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, expected 204", w.Code)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		t.Parallel()

		w := doRequest(t, srv.Handler(), http.MethodPost, "/api/scan-url",
			ScanRequest{URL: "https://example.com"}, "Origin", "https://evil.example")
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, expected none", got)
		}
	})
}

// TestServe tests graceful shutdown on context cancellation.
func TestServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	srv := NewServer(fakeScorer())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		req, reqErr := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+ln.Addr().String()+"/health", nil)
		if reqErr != nil {
			t.Fatalf("failed to create request: %v", reqErr)
		}
		resp, err = http.DefaultClient.Do(req)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, expected 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancellation")
	}
}
