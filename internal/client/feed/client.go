package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"

	http_transport "github.com/oshokin/podcast-grabber/internal/transport/http"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

// Client defines the interface for fetching feed documents and episode enclosures.
type Client interface {
	// FetchFeed downloads the feed document at the given URL and returns its raw bytes.
	// Repeated calls with the same URL within one session are served from an in-memory cache.
	FetchFeed(ctx context.Context, feedURL string) ([]byte, error)
	// FetchEnclosure opens a streaming download of an episode enclosure.
	FetchEnclosure(ctx context.Context, enclosureURL string) (*FetchEnclosureResult, error)
}

// ClientImpl implements the Client interface over plain HTTP.
type ClientImpl struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// feedCache caches raw feed documents keyed by URL,
	// so passing the same feed URL twice doesn't refetch it.
	feedCache *lru.Cache[string, []byte]
}

// feedCacheSize defines the maximum number of feed documents to cache.
// A single invocation rarely names more than a handful of feeds.
const feedCacheSize = 32

// NewClient creates and returns a new instance of ClientImpl.
func NewClient() (Client, error) {
	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewSimpleUserAgentProvider(http_transport.DefaultUserAgent)),
		Timeout: http_transport.DefaultTimeout,
	}

	feedCache, err := lru.New[string, []byte](feedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed cache: %w", err)
	}

	return &ClientImpl{
		httpClient: httpClient,
		feedCache:  feedCache,
	}, nil
}

// FetchFeed downloads the feed document at the given URL and returns its raw bytes.
func (c *ClientImpl) FetchFeed(ctx context.Context, feedURL string) ([]byte, error) {
	if err := validateURL(feedURL); err != nil {
		return nil, err
	}

	if cached, ok := c.feedCache.Get(feedURL); ok {
		return cached, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, feedURL)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: response.StatusCode}
	}

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	c.feedCache.Add(feedURL, raw)

	return raw, nil
}

// FetchEnclosure opens a streaming download of an episode enclosure.
func (c *ClientImpl) FetchEnclosure(ctx context.Context, enclosureURL string) (*FetchEnclosureResult, error) {
	if err := validateURL(enclosureURL); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, enclosureURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, enclosureURL)
	}

	// Add a Range header to request partial content where the CDN supports it.
	request.Header.Add("Range", "bytes=0-")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusPartialContent {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, &HTTPStatusError{StatusCode: response.StatusCode}
	}

	return &FetchEnclosureResult{
		Body:       response.Body,
		TotalBytes: response.ContentLength,
	}, nil
}

// validateURL ensures the URL is absolute and uses a supported scheme.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
	}

	return nil
}
