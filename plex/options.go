package plex

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSectionConcurrency bounds how many library sections are fetched in
// parallel during a full library scan.
func WithSectionConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.sectionConcurrency = n
		}
	}
}
