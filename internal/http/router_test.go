package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/auth"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/preferences"
	"cryptodash/internal/storetest"
)

type staticProvider struct{ p dashboard.Payload }

func (s staticProvider) Fetch(context.Context, dashboard.Profile) dashboard.Payload { return s.p }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tokens, err := auth.NewTokens("test-secret", time.Hour, false)
	require.NoError(t, err)

	prefs := &preferences.Service{Store: storetest.NewPreferences()}
	return NewRouter(config.Config{}, Services{
		Auth:  &auth.Service{Store: storetest.NewUsers(), Tokens: tokens},
		Prefs: prefs,
		Dashboard: &dashboard.Service{
			Store: storetest.NewDashboard(),
			Prefs: prefs,
			Providers: dashboard.Providers{
				News:    staticProvider{dashboard.NewsPayload{Title: "headline", Source: "test"}},
				Prices:  staticProvider{dashboard.PricesPayload{PricesUSD: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(42000)}, Source: "test"}},
				Insight: staticProvider{dashboard.InsightPayload{Text: "stay calm", Source: "test", Model: "m"}},
				Meme:    staticProvider{dashboard.MemePayload{Title: "meme", Source: "test"}},
			},
			Now: func() time.Time { return time.Date(2026, 5, 4, 23, 59, 0, 0, time.UTC) },
		},
	})
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func signup(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "name": "Ada", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "bearer", resp["token_type"])
	require.NotEmpty(t, resp["access_token"])
	return resp["access_token"]
}

type dashboardBody struct {
	Date  string `json:"date"`
	Items []struct {
		ID       uint64          `json:"id"`
		ItemType string          `json:"item_type"`
		Payload  json.RawMessage `json:"payload"`
		UserVote *int            `json:"user_vote"`
	} `json:"items"`
}

func TestRouter_EndToEnd(t *testing.T) {
	h := newTestRouter(t)
	token := signup(t, h, "Ada@Example.com ")

	rec := call(t, h, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, "Ada", me["name"])
	assert.Equal(t, false, me["has_preferences"])

	rec = call(t, h, http.MethodGet, "/preferences", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodPost, "/preferences", token, map[string]any{
		"assets":        []string{"btc", "SOL", "BTC"},
		"investor_type": "HODLer",
		"content_types": []string{"Market News"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prefs := decode[map[string]any](t, rec)
	assert.Equal(t, []any{"BTC", "SOL"}, prefs["assets"])

	rec = call(t, h, http.MethodGet, "/me", token, nil)
	assert.Equal(t, true, decode[map[string]any](t, rec)["has_preferences"])

	rec = call(t, h, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[dashboardBody](t, rec)
	assert.Equal(t, "2026-05-04", first.Date)
	require.Len(t, first.Items, 4)

	var types []string
	for _, it := range first.Items {
		types = append(types, it.ItemType)
		assert.Nil(t, it.UserVote)
	}
	assert.Equal(t, []string{"news", "prices", "ai", "meme"}, types)
	assert.JSONEq(t, `{"prices_usd":{"BTC":42000},"source":"test"}`, string(first.Items[1].Payload))

	aiID := first.Items[2].ID
	rec = call(t, h, http.MethodPost, "/votes", token, map[string]any{"dashboard_item_id": aiID, "value": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"dashboard_item_id":`+jsonNumber(aiID)+`,"value":1}`, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/dashboard", token, nil)
	second := decode[dashboardBody](t, rec)
	require.Len(t, second.Items, 4)
	for i, it := range second.Items {
		assert.Equal(t, first.Items[i].ID, it.ID)
		if it.ID == aiID {
			require.NotNil(t, it.UserVote)
			assert.Equal(t, 1, *it.UserVote)
		} else {
			assert.Nil(t, it.UserVote)
		}
	}
}

func jsonNumber(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestRouter_Errors(t *testing.T) {
	h := newTestRouter(t)
	owner := signup(t, h, "owner@example.com")
	other := signup(t, h, "other@example.com")

	rec := call(t, h, http.MethodGet, "/dashboard", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	itemID := decode[dashboardBody](t, rec).Items[0].ID

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		detail string
	}{
		{"duplicate email", http.MethodPost, "/auth/signup", "", map[string]string{"email": "OWNER@example.com", "name": "x", "password": "hunter22"}, http.StatusConflict, "email already registered"},
		{"short password", http.MethodPost, "/auth/signup", "", map[string]string{"email": "new@example.com", "name": "x", "password": "123"}, http.StatusUnprocessableEntity, ""},
		{"wrong password", http.MethodPost, "/auth/login", "", map[string]string{"email": "owner@example.com", "password": "wrongpass"}, http.StatusUnauthorized, "invalid credentials"},
		{"unknown email", http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "wrongpass"}, http.StatusUnauthorized, "invalid credentials"},
		{"malformed body", http.MethodPost, "/auth/login", "", "{not json", http.StatusUnprocessableEntity, "invalid request body"},
		{"missing token", http.MethodGet, "/me", "", nil, http.StatusUnauthorized, "missing bearer token"},
		{"garbage token", http.MethodGet, "/dashboard", "not-a-jwt", nil, http.StatusUnauthorized, "invalid token"},
		{"vote out of range", http.MethodPost, "/votes", owner, map[string]any{"dashboard_item_id": itemID, "value": 2}, http.StatusUnprocessableEntity, "vote value must be -1 or 1"},
		{"vote missing value", http.MethodPost, "/votes", owner, map[string]any{"dashboard_item_id": itemID}, http.StatusUnprocessableEntity, "value is required"},
		{"vote unknown item", http.MethodPost, "/votes", owner, map[string]any{"dashboard_item_id": 9999, "value": 1}, http.StatusNotFound, "dashboard item not found"},
		{"vote foreign item", http.MethodPost, "/votes", other, map[string]any{"dashboard_item_id": itemID, "value": -1}, http.StatusForbidden, "not allowed to vote on this item"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(t, h, tc.method, tc.path, tc.token, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decode[map[string]string](t, rec)
			if tc.detail != "" {
				assert.Equal(t, tc.detail, body["detail"])
			} else {
				assert.NotEmpty(t, body["detail"])
			}
		})
	}
}

func TestRouter_DegradesWithoutDatabase(t *testing.T) {
	h := NewRouter(config.Config{}, Services{DatabaseErr: errors.New("DATABASE_URL is not set")})

	rec := call(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "cryptodash", health["service"])
	assert.Equal(t, "unavailable: DATABASE_URL is not set", health["database"])
	assert.Equal(t, "ok", health["auth"])

	for _, path := range []string{"/auth/signup", "/auth/login", "/votes"} {
		rec = call(t, h, http.MethodPost, path, "", map[string]string{})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "service unavailable: DATABASE_URL is not set", decode[map[string]string](t, rec)["detail"])
	}

	rec = call(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSFromConfig(t *testing.T) {
	h := NewRouter(config.Config{CORSAllowedOrigins: []string{"http://localhost:5173"}}, Services{})

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "CORS_ORIGINS")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSwappable_RecoversAfterDatabaseReturns(t *testing.T) {
	sw := NewSwappable(NewRouter(config.Config{}, Services{DatabaseErr: errors.New("connection refused")}))

	rec := call(t, sw, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "late@example.com", "name": "Late", "password": "hunter22",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	sw.Store(newTestRouter(t))
	signup(t, sw, "late@example.com")

	rec = call(t, sw, http.MethodGet, "/health", "", nil)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["database"])
}
