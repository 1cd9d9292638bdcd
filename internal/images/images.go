// Package images finds a cover photo for a destination through the Unsplash
// search API. A lookup yields zero or one URL and is never retried.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Lookup is what views depend on.
type Lookup interface {
	ImageFor(ctx context.Context, destination string) (string, error)
}

// ResultCache remembers lookups, including the ones that found nothing.
type ResultCache interface {
	Get(ctx context.Context, destination string) (imageURL string, found bool, err error)
	Set(ctx context.Context, destination, imageURL string) error
}

type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	cache      ResultCache
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithCache(cache ResultCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL, accessKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// ImageFor returns the first search hit for "<destination> tours", or "" when
// there is none. Without an access key it never calls out.
func (c *Client) ImageFor(ctx context.Context, destination string) (string, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" || c.accessKey == "" {
		return "", nil
	}

	if c.cache != nil {
		cached, found, err := c.cache.Get(ctx, destination)
		if err != nil {
			c.logger.Warn("image cache read failed", "destination", destination, "error", err)
		} else if found {
			return cached, nil
		}
	}

	imageURL, err := c.search(ctx, destination)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, destination, imageURL); err != nil {
			c.logger.Warn("image cache write failed", "destination", destination, "error", err)
		}
	}
	return imageURL, nil
}

func (c *Client) search(ctx context.Context, destination string) (string, error) {
	q := url.Values{}
	q.Set("query", destination+" tours")
	q.Set("per_page", "1")
	q.Set("client_id", c.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search %q: %w", destination, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search %q: unexpected status %d", destination, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("image search %q: decode: %w", destination, err)
	}
	if len(body.Results) == 0 {
		return "", nil
	}
	return body.Results[0].URLs.Regular, nil
}

var _ Lookup = (*Client)(nil)
