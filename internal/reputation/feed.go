package reputation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultFeedURL is the OpenPhish community feed.
const DefaultFeedURL = "https://raw.githubusercontent.com/openphish/public_feed/refs/heads/main/feed.txt"

// Feed provides the raw blacklist content.
type Feed interface {
	// Name identifies the feed in logs and snapshot metadata.
	Name() string
	// Open returns the feed body. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// NewFeed returns an HTTPFeed for http(s) locations and a FileFeed otherwise.
func NewFeed(location string, client *http.Client) Feed {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTPFeed(location, client)
	}
	return NewFileFeed(location)
}

// HTTPFeed downloads a feed over HTTP.
type HTTPFeed struct {
	url    string
	client *http.Client
}

// NewHTTPFeed creates an HTTP feed. A nil client uses http.DefaultClient.
func NewHTTPFeed(url string, client *http.Client) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{url: url, client: client}
}

// Name returns the feed URL.
func (f *HTTPFeed) Name() string { return f.url }

// Open performs the GET request.
func (f *HTTPFeed) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d from %s", ErrFeedStatus, resp.StatusCode, f.url)
	}
	return resp.Body, nil
}

// FileFeed reads a feed from the local filesystem.
type FileFeed struct {
	path string
}

// NewFileFeed creates a file feed.
func NewFileFeed(path string) *FileFeed {
	return &FileFeed{path: path}
}

// Name returns the file path.
func (f *FileFeed) Name() string { return f.path }

// Open opens the file.
func (f *FileFeed) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed file: %w", err)
	}
	return file, nil
}
