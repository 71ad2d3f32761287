// Package httpclient builds the resty client every discovery/gateway driver
// uses to talk to its backend, with the per-call timeout and structured
// request/response logging spec'd for every outbound call.
package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/masallsome/gwsyncer/pkg/logging"
)

// DefaultTimeout is the per-call timeout for admin/registry requests absent
// a more specific override (health checks configure their own).
const DefaultTimeout = 10 * time.Second

// Option configures a Client at construction time.
type Option func(*resty.Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithHeader sets a header sent with every request (e.g. X-API-KEY).
func WithHeader(key, value string) Option {
	return func(c *resty.Client) { c.SetHeader(key, value) }
}

// New builds a resty.Client with DefaultTimeout and a logging hook so every
// driver call is traceable the way the teacher traces its own RPCs.
func New(log *logging.Logger, opts ...Option) *resty.Client {
	c := resty.New().SetTimeout(DefaultTimeout)
	for _, opt := range opts {
		opt(c)
	}
	if log != nil {
		c.OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			log.WithFields(map[string]any{
				"method":   r.Request.Method,
				"url":      r.Request.URL,
				"status":   r.StatusCode(),
				"duration": r.Time().String(),
			}).Debug("driver http call")
			return nil
		})
	}
	return c
}
