package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/pkg/apperr"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", apperr.Validation("split amounts must sum to the expense amount"), http.StatusBadRequest, "VALIDATION_ERROR", "split amounts must sum to the expense amount"},
		{"not found", fmt.Errorf("load: %w", apperr.NotFound("settlement not found")), http.StatusNotFound, "NOT_FOUND", "settlement not found"},
		{"forbidden", apperr.Forbidden("only the recipient can confirm a settlement"), http.StatusForbidden, "FORBIDDEN", "only the recipient can confirm a settlement"},
		{"conflict", apperr.Conflict("settlement already confirmed"), http.StatusConflict, "CONFLICT", "settlement already confirmed"},
		{"untyped", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			FromError(rec, req, tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			var body APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
		})
	}
}

func TestPageMeta(t *testing.T) {
	assert.Equal(t, &Meta{Page: 1, PerPage: 20, Total: 0, TotalPages: 0}, PageMeta(1, 20, 0))
	assert.Equal(t, &Meta{Page: 2, PerPage: 2, Total: 3, TotalPages: 2}, PageMeta(2, 2, 3))
	assert.Equal(t, &Meta{Page: 1, PerPage: 5, Total: 10, TotalPages: 2}, PageMeta(1, 5, 10))
}
