package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/nao1215/phishscan/internal/model"
)

// maxAPIResponseBytes bounds the API response body.
const maxAPIResponseBytes = 1 << 20

var (
	errRateLimited = errors.New("client-side rate limit exceeded")
	errNoVerdict   = errors.New("reputation response has no hit field")
)

// apiRequest is the JSON body sent to the reputation API.
type apiRequest struct {
	URL string `json:"url"`
}

// apiResponse is the service answer. Hit is a pointer so that a body
// without a verdict is not read as a miss.
type apiResponse struct {
	Hit    *bool  `json:"hit"`
	Source string `json:"source"`
}

// APISource queries an external reputation service.
//
// The service receives POST {"url": "..."} and answers
// {"hit": bool, "source": "..."}. Requests honour the caller's context
// deadline; requests beyond the configured rate are not sent.
type APISource struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// APIOption configures an APISource.
type APIOption func(*APISource)

// WithRateLimit allows rps requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) APIOption {
	return func(s *APISource) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewAPISource creates an API-backed source. endpoint must be an http(s) URL.
func NewAPISource(endpoint string, client *http.Client, opts ...APIOption) (*APISource, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	s := &APISource{
		endpoint: endpoint,
		client:   client,
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns "api".
func (s *APISource) Name() string { return "api" }

// Lookup queries the service. All failures wrap ErrUnavailable.
func (s *APISource) Lookup(ctx context.Context, rec *model.URLRecord) (Verdict, error) {
	if !s.limiter.Allow() {
		return Verdict{}, unavailable(errRateLimited)
	}

	body, err := json.Marshal(apiRequest{URL: rec.Raw})
	if err != nil {
		return Verdict{}, unavailable(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, unavailable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Verdict{}, unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, unavailable(fmt.Errorf("%w: %d", ErrFeedStatus, resp.StatusCode))
	}

	var ar apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(&ar); err != nil {
		return Verdict{}, unavailable(fmt.Errorf("failed to decode reputation response: %w", err))
	}
	if ar.Hit == nil {
		return Verdict{}, unavailable(errNoVerdict)
	}
	v := Verdict{Hit: *ar.Hit, Source: ar.Source}
	if v.Source == "" {
		v.Source = s.Name()
	}
	return v, nil
}
