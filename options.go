package nlxd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the overall deadline for a single request. An earlier
// deadline on the caller's context still applies. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets how many times a request is re-sent after the
// connection is reset before any of its body was written.
//
// Requests with side effects are retried at most once whatever n is.
// Zero disables the retry.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger. Requests and operation polls are logged at
// debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxResponseSize sets the largest response body accepted, in bytes.
// Zero removes the ceiling.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		c.maxResponseSize = n
	}
}

// WithPollInterval sets the delay between operation polls. The delay
// doubles after each non-terminal poll up to maxInterval. Passing the same
// value twice disables backoff.
func WithPollInterval(interval, maxInterval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if maxInterval > 0 {
			c.maxPollInterval = maxInterval
		}
	}
}

// WithWaitTimeout sets how long resource methods such as
// [Client.CreateInstance] wait for their operation. A negative value waits
// until the operation ends or the context is done.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.waitTimeout = d
	}
}

// WithMetrics registers request and operation collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registerer = reg
	}
}

// WithEnvironment replaces the environment lookup and the file existence
// check used to locate the daemon socket.
func WithEnvironment(getenv func(string) string, exists func(string) bool) Option {
	return func(c *Client) {
		c.getenv = getenv
		c.exists = exists
	}
}
