package stagebased

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hub/internal/clients/remote"
	"hub/internal/platform/config"
	"hub/internal/platform/metrics"
)

const serviceName = "stage-based-messaging"

// Subscription is an active or historical enrolment of an identity on a messageset.
type Subscription struct {
	ID                 string         `json:"id"`
	Identity           string         `json:"identity"`
	Messageset         int            `json:"messageset"`
	NextSequenceNumber int            `json:"next_sequence_number"`
	Lang               string         `json:"lang"`
	Active             bool           `json:"active"`
	Completed          bool           `json:"completed"`
	Schedule           int            `json:"schedule"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Messageset is a catalog entry describing a named sequence of messages.
type Messageset struct {
	ID              int    `json:"id"`
	ShortName       string `json:"short_name"`
	DefaultSchedule int    `json:"default_schedule"`
	ContentType     string `json:"content_type,omitempty"`
}

// Schedule describes delivery cadence; DayOfWeek is a comma separated list
// of ISO weekday numbers such as "1,3,5".
type Schedule struct {
	ID        int    `json:"id"`
	DayOfWeek string `json:"day_of_week"`
}

// SubscriptionFilter narrows ListSubscriptions.
type SubscriptionFilter struct {
	Identity   string
	Active     *bool
	Messageset *int
}

// SubscriptionPatch is a partial update; nil fields are left unchanged.
type SubscriptionPatch struct {
	Active *bool   `json:"active,omitempty"`
	Lang   *string `json:"lang,omitempty"`
}

// Client talks to the Subscription (stage-based messaging) Service.
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

// New builds a Subscription Service client.
func New(cfg config.ServiceConfig, opts ...Option) *Client {
	c := &Client{http: remote.NewJSONClient(serviceName, cfg.URL, cfg.Timeout, remote.TokenAuth(cfg.Token))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSubscriptions lists subscriptions matching filter across all pages.
func (c *Client) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]Subscription, error) {
	q := url.Values{}
	if filter.Identity != "" {
		q.Set("identity", filter.Identity)
	}
	if filter.Active != nil {
		q.Set("active", strconv.FormatBool(*filter.Active))
	}
	if filter.Messageset != nil {
		q.Set("messageset", strconv.Itoa(*filter.Messageset))
	}
	subs, err := remote.ListAll[Subscription](ctx, c.http, "subscriptions/", q)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscription applies patch to subscription id.
func (c *Client) UpdateSubscription(ctx context.Context, id string, patch SubscriptionPatch) error {
	if err := c.http.Do(ctx, http.MethodPatch, "subscriptions/"+url.PathEscape(id)+"/", nil, patch, nil); err != nil {
		return fmt.Errorf("update subscription %s: %w", id, err)
	}
	return nil
}

// ListMessagesets lists the catalog, optionally filtered by short name.
func (c *Client) ListMessagesets(ctx context.Context, shortName string) ([]Messageset, error) {
	q := url.Values{}
	if shortName != "" {
		q.Set("short_name", shortName)
	}
	sets, err := remote.ListAll[Messageset](ctx, c.http, "messageset/", q)
	if err != nil {
		return nil, fmt.Errorf("list messagesets: %w", err)
	}
	return sets, nil
}

// GetMessageset fetches one catalog entry.
func (c *Client) GetMessageset(ctx context.Context, id int) (*Messageset, error) {
	var out Messageset
	if err := c.http.Do(ctx, http.MethodGet, "messageset/"+strconv.Itoa(id)+"/", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get messageset %d: %w", id, err)
	}
	return &out, nil
}

// GetSchedule fetches one schedule.
func (c *Client) GetSchedule(ctx context.Context, id int) (*Schedule, error) {
	var out Schedule
	if err := c.http.Do(ctx, http.MethodGet, "schedule/"+strconv.Itoa(id)+"/", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get schedule %d: %w", id, err)
	}
	return &out, nil
}
