// Package googlebooks provides a rate-limited client for the Google Books
// volumes API.
package googlebooks

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/ratelimit"
)

const (
	// Rate limit: Google Books allows generous anonymous quota, but we
	// stay conservative to avoid 429s under burst search traffic.
	defaultRPS   = 5.0
	defaultBurst = 3

	defaultTimeout = 10 * time.Second
)

// Client is a rate-limited Google Books API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	apiKey  string
	logger  *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithAPIKey attaches an API key to every request. The volumes API works
// unkeyed at lower quotas, so the key is optional.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithRateLimit overrides the request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter.Stop()
		c.limiter = ratelimit.New(rps, burst)
	}
}

// New creates a new Google Books client.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies this provider.
func (c *Client) Name() string { return "googlebooks" }

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}
