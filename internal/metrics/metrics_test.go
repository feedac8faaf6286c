package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesMetrics(t *testing.T) {
	ProviderFetch("news", OutcomeFallback)
	ObserveRequest(http.MethodGet, "/dashboard", http.StatusOK, 25*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cryptodash_provider_fetch_total{outcome="fallback",provider="news"}`)
	assert.Contains(t, string(body), `cryptodash_http_request_duration_seconds_count{method="GET",route="/dashboard",status="200"}`)
}
