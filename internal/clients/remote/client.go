package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hub/internal/platform/metrics"
)

// HTTPClient abstracts http.Client.Do for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Authorizer decorates an outgoing request with credentials.
type Authorizer func(req *http.Request)

// TokenAuth returns the "Authorization: Token <t>" scheme used by the seed services.
func TokenAuth(token string) Authorizer {
	return func(req *http.Request) {
		if token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
	}
}

// BasicAuth returns an HTTP basic auth decorator.
func BasicAuth(username, password string) Authorizer {
	return func(req *http.Request) {
		req.SetBasicAuth(username, password)
	}
}

const maxErrorBody = 4 * 1024

// JSONClient performs JSON requests against one base URL and normalizes
// failures into *Error.
type JSONClient struct {
	Service string
	BaseURL string
	HTTP    HTTPClient
	Auth    Authorizer
	Metrics *metrics.Metrics
}

// NewJSONClient builds a JSONClient with a default http.Client.
func NewJSONClient(service, baseURL string, timeout time.Duration, auth Authorizer) *JSONClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &JSONClient{
		Service: service,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Auth:    auth,
	}
}

// Do sends body (if non-nil) as JSON to path with query params and decodes
// a 2xx response into out (if non-nil).
func (c *JSONClient) Do(ctx context.Context, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		category := "ok"
		if err != nil {
			category = string(GetCategory(err))
		}
		c.Metrics.ObserveRemote(c.Service, category, time.Since(start))
	}()

	endpoint := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return NewError(CategoryBadData, c.Service, "encode request", 0, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return NewError(CategoryPermanent, c.Service, "build request", 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Auth != nil {
		c.Auth(req)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return NewError(CategoryTransient, c.Service, fmt.Sprintf("%s %s", method, path), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return FromStatus(c.Service, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewError(CategoryBadData, c.Service, "decode response", resp.StatusCode, err)
	}
	return nil
}

// Page is the paginated list envelope returned by the seed services.
type Page[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// ListAll follows "next" links until the listing is exhausted.
func ListAll[T any](ctx context.Context, c *JSONClient, path string, query url.Values) ([]T, error) {
	var all []T
	var page Page[T]
	if err := c.Do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	all = append(all, page.Results...)
	for page.Next != nil && *page.Next != "" {
		next, err := url.Parse(*page.Next)
		if err != nil {
			return nil, NewError(CategoryBadData, c.Service, "parse next link", 0, err)
		}
		nextPath := strings.TrimPrefix(next.Path, mustPath(c.BaseURL))
		page = Page[T]{}
		if err := c.Do(ctx, http.MethodGet, nextPath, next.Query(), nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
	}
	return all, nil
}

func mustPath(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}
