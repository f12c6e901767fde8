package identity

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

const identityID = "5f0c8a1e-2b7d-4c3e-9a6f-1d2e3f4a5b6c"

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.ServiceConfig{URL: srv.URL + "/api/v1", Token: "id-token", Timeout: time.Second})
}

func TestGet(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/identities/"+identityID+"/", r.URL.Path)
		assert.Equal(t, "Token id-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Identity{ID: identityID, Details: NewAddressDetails(AddressMSISDN, "+27825550001")})
	})

	ident, err := c.Get(context.Background(), identityID)
	require.NoError(t, err)
	assert.Equal(t, identityID, ident.ID)
	assert.NotNil(t, ident.Section("addresses", false))
}

func TestGetMissingIdentity(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Get(context.Background(), identityID)
	assert.True(t, remote.IsNotFound(err))
}

func TestUpdateSendsDetails(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body struct {
			Details map[string]any `json:"details"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "eng_ZA", body.Details["lang_code"])
		_ = json.NewEncoder(w).Encode(Identity{ID: identityID, Details: body.Details})
	})

	ident, err := c.Update(context.Background(), identityID, map[string]any{"lang_code": "eng_ZA"})
	require.NoError(t, err)
	assert.Equal(t, "eng_ZA", ident.DetailString("lang_code"))
}

func TestFindByAddress(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/identities/search/", r.URL.Path)
		assert.Equal(t, "+27825550001", r.URL.Query().Get("details__addresses__msisdn"))
		_ = json.NewEncoder(w).Encode(remote.Page[Identity]{Results: []Identity{{ID: identityID}}})
	})

	found, err := c.FindByAddress(context.Background(), AddressMSISDN, "+27825550001")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, identityID, found[0].ID)
}
