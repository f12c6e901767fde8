package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"hub/internal/clients/remote"
	"hub/internal/platform/config"
	"hub/internal/platform/metrics"
)

const serviceName = "identity-store"

// Client talks to the Identity Service.
type Client struct {
	http *remote.JSONClient
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

// New builds an Identity Service client from config.
func New(cfg config.ServiceConfig, opts ...Option) *Client {
	c := &Client{http: remote.NewJSONClient(serviceName, cfg.URL, cfg.Timeout, remote.TokenAuth(cfg.Token))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches an identity by id.
func (c *Client) Get(ctx context.Context, id string) (*Identity, error) {
	var out Identity
	if err := c.http.Do(ctx, http.MethodGet, "identities/"+url.PathEscape(id)+"/", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return &out, nil
}

// Create creates an identity with the given details.
func (c *Client) Create(ctx context.Context, details map[string]any) (*Identity, error) {
	body := map[string]any{"details": details}
	var out Identity
	if err := c.http.Do(ctx, http.MethodPost, "identities/", nil, body, &out); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &out, nil
}

// Update replaces an identity's details.
func (c *Client) Update(ctx context.Context, id string, details map[string]any) (*Identity, error) {
	var out Identity
	body := map[string]any{"details": details}
	if err := c.http.Do(ctx, http.MethodPatch, "identities/"+url.PathEscape(id)+"/", nil, body, &out); err != nil {
		return nil, fmt.Errorf("update identity %s: %w", id, err)
	}
	return &out, nil
}

// FindByAddress lists identities that hold addr under addrType.
func (c *Client) FindByAddress(ctx context.Context, addrType, addr string) ([]Identity, error) {
	q := url.Values{}
	q.Set("details__addresses__"+addrType, addr)
	out, err := remote.ListAll[Identity](ctx, c.http, "identities/search/", q)
	if err != nil {
		return nil, fmt.Errorf("search identities by %s: %w", addrType, err)
	}
	return out, nil
}
