package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hub/pkg/domain"
	"hub/pkg/platform/sentinel"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description bool
	}{
		{"internal error omits description", errors.New("db failed"), http.StatusInternalServerError, CodeInternal, false},
		{"bad request includes description", BadRequest{Msg: "invalid input"}, http.StatusBadRequest, CodeBadRequest, true},
		{"invalid id", fmt.Errorf("record_id: %w", domain.ErrInvalidID), http.StatusBadRequest, CodeBadRequest, true},
		{"wrapped not found", fmt.Errorf("load record: %w", sentinel.ErrNotFound), http.StatusNotFound, CodeNotFound, true},
		{"unavailable", sentinel.ErrUnavailable, http.StatusServiceUnavailable, CodeUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.code, body["error"])
			_, described := body["error_description"]
			assert.Equal(t, tt.description, described)
		})
	}
}
