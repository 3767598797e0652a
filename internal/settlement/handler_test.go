package settlement_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/tripsplit/internal/settlement"
	"github.com/fkhayef/tripsplit/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(f *fixture) http.Handler {
	h := settlement.NewHandler(f.settlements)
	r := chi.NewRouter()
	r.Use(middleware.ActorMiddleware)
	r.Route("/trips/{tripId}", h.MountTripRoutes)
	r.Mount("/settlements", h.Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, path string, actor int64, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if actor != 0 {
		req.Header.Set(middleware.UserIDHeader, fmt.Sprint(actor))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHandlerSettlementFlow(t *testing.T) {
	f := newFixture(t)
	f.spend(t, alice, "100.00", alice, bob)
	h := newRouter(f)
	base := fmt.Sprintf("/trips/%d/settlements", f.tripID)

	rec, env := do(t, h, http.MethodPost, base, bob, `{"from_user_id":2,"to_user_id":1,"amount":"50.00","notes":"cash"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created settlement.SettlementResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "50.00", created.Amount.String())
	assert.Equal(t, "INR", created.Currency)
	assert.False(t, created.Confirmed)

	confirm := fmt.Sprintf("/settlements/%d/confirm", created.ID)
	rec, env = do(t, h, http.MethodPost, confirm, carol, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, http.MethodPost, confirm, alice, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var confirmed settlement.ConfirmResponse
	require.NoError(t, json.Unmarshal(env.Data, &confirmed))
	assert.True(t, confirmed.Confirmed)

	rec, _ = do(t, h, http.MethodPost, confirm, alice, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = do(t, h, http.MethodGet, base+"/plan?algorithm=minimal", carol, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var plan settlement.PlanResponse
	require.NoError(t, json.Unmarshal(env.Data, &plan))
	assert.Equal(t, settlement.AlgorithmMinimal, plan.Algorithm)
	assert.Empty(t, plan.Transfers)
	assert.True(t, plan.Total.IsZero())

	rec, env = do(t, h, http.MethodGet, base+"?confirmed=true", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []settlement.SettlementResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ConfirmedAt)
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	base := fmt.Sprintf("/trips/%d/settlements", f.tripID)

	tests := []struct {
		name   string
		method string
		path   string
		actor  int64
		body   string
		status int
	}{
		{"missing actor", http.MethodGet, base, 0, "", http.StatusUnauthorized},
		{"outsider", http.MethodGet, base, dave, "", http.StatusForbidden},
		{"unknown trip", http.MethodGet, "/trips/999/settlements", alice, "", http.StatusNotFound},
		{"bad trip id", http.MethodGet, "/trips/abc/settlements", alice, "", http.StatusBadRequest},
		{"bad algorithm", http.MethodGet, base + "/plan?algorithm=greedy", alice, "", http.StatusBadRequest},
		{"bad confirmed flag", http.MethodGet, base + "?confirmed=maybe", alice, "", http.StatusBadRequest},
		{"self transfer", http.MethodPost, base, bob, `{"from_user_id":2,"to_user_id":2,"amount":"5.00"}`, http.StatusBadRequest},
		{"negative amount", http.MethodPost, base, bob, `{"from_user_id":2,"to_user_id":1,"amount":"-5.00"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, base, bob, `{"from_user_id":2,"to_user_id":1,"amount":"5.00","tip":1}`, http.StatusBadRequest},
		{"not a party", http.MethodPost, base, carol, `{"from_user_id":2,"to_user_id":1,"amount":"5.00"}`, http.StatusForbidden},
		{"missing settlement", http.MethodGet, "/settlements/999", alice, "", http.StatusNotFound},
		{"missing confirm", http.MethodPost, "/settlements/999/confirm", alice, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, tt.method, tt.path, tt.actor, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}
