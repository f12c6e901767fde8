package jembi

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"hub/internal/clients/remote"
	"hub/internal/platform/config"
	"hub/internal/platform/metrics"
)

const serviceName = "jembi"

// Client posts compliance reports to Jembi. Every non-2xx status and
// transport failure comes back as a *remote.Error.
type Client struct {
	http    *remote.JSONClient
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) {
		cl.http.Metrics = m
	}
}

// WithHTTPClient overrides the transport; used by tests.
func WithHTTPClient(c remote.HTTPClient) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http.HTTP = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New builds a Jembi client. TLS verification follows cfg.InsecureSkipVerify.
func New(cfg config.JembiConfig, opts ...Option) *Client {
	jc := remote.NewJSONClient(serviceName, cfg.BaseURL, cfg.Timeout, remote.BasicAuth(cfg.Username, cfg.Password))
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // configurable, see JembiConfig
	jc.HTTP = &http.Client{Timeout: jc.HTTP.(*http.Client).Timeout, Transport: transport}

	c := &Client{http: jc, logger: slog.Default()}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	if cfg.InsecureSkipVerify {
		c.logger.Warn("jembi client running with TLS verification disabled")
	}
	return c
}

// Post sends payload to endpoint, e.g. "subscription" or "nc/optout".
func (c *Client) Post(ctx context.Context, endpoint string, payload any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return remote.NewError(remote.CategoryTransient, serviceName, "rate limiter", 0, err)
		}
	}
	if err := c.http.Do(ctx, http.MethodPost, endpoint, nil, payload, nil); err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	return nil
}
