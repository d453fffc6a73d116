// Package openlibrary provides a rate-limited client for the Open Library
// search API.
package openlibrary

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/readingroomapp/readingroom-server/internal/ratelimit"
)

const (
	// Open Library asks bulk consumers to stay under a few requests per
	// second; interactive search traffic sits well inside that.
	defaultRPS   = 3.0
	defaultBurst = 3

	defaultTimeout = 10 * time.Second
)

// Client is a rate-limited Open Library API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
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

// WithRateLimit overrides the request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter.Stop()
		c.limiter = ratelimit.New(rps, burst)
	}
}

// New creates a new Open Library client.
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
func (c *Client) Name() string { return "openlibrary" }

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}
