package stagebased

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub/internal/clients/remote"
	"hub/internal/platform/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.ServiceConfig{URL: srv.URL, Token: "sbm-token", Timeout: time.Second})
}

func TestListSubscriptionsFilters(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/subscriptions/", r.URL.Path)
		assert.Equal(t, "mother-1", q.Get("identity"))
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "12", q.Get("messageset"))
		_ = json.NewEncoder(w).Encode(remote.Page[Subscription]{Results: []Subscription{
			{ID: "sub-1", Identity: "mother-1", Messageset: 12, Active: true, Lang: "eng"},
		}})
	})

	active, set := true, 12
	subs, err := c.ListSubscriptions(context.Background(), SubscriptionFilter{Identity: "mother-1", Active: &active, Messageset: &set})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub-1", subs[0].ID)
}

func TestUpdateSubscriptionSendsOnlySetFields(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/subscriptions/sub-1/", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"active": false}, body)
		w.WriteHeader(http.StatusOK)
	})

	inactive := false
	require.NoError(t, c.UpdateSubscription(context.Background(), "sub-1", SubscriptionPatch{Active: &inactive}))
}

func TestCatalogLookups(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/messageset/":
			assert.Equal(t, "momconnect_prebirth.hw_full.1", r.URL.Query().Get("short_name"))
			_ = json.NewEncoder(w).Encode(remote.Page[Messageset]{Results: []Messageset{{ID: 21, ShortName: "momconnect_prebirth.hw_full.1", DefaultSchedule: 3}}})
		case "/messageset/21/":
			_ = json.NewEncoder(w).Encode(Messageset{ID: 21, DefaultSchedule: 3})
		case "/schedule/3/":
			_ = json.NewEncoder(w).Encode(Schedule{ID: 3, DayOfWeek: "1,3,5"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	sets, err := c.ListMessagesets(ctx, "momconnect_prebirth.hw_full.1")
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set, err := c.GetMessageset(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 3, set.DefaultSchedule)

	sched, err := c.GetSchedule(ctx, set.DefaultSchedule)
	require.NoError(t, err)
	assert.Equal(t, "1,3,5", sched.DayOfWeek)

	_, err = c.GetSchedule(ctx, 99)
	assert.True(t, remote.IsNotFound(err))
}
