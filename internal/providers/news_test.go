package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/dashboard"
)

func newsServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("auth_token"))
		assert.Equal(t, "BTC,ETH", q.Get("currencies"))
		assert.Equal(t, "news", q.Get("kind"))
		assert.Equal(t, "hot", q.Get("filter"))
		assert.Equal(t, "true", q.Get("public"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var testProfile = dashboard.Profile{Assets: []string{"BTC", "ETH"}}

func TestNews_Fetch(t *testing.T) {
	srv := newsServer(t, `{"results":[
		{"id":123,"title":"ETF inflows surge","published_at":"2026-05-04T08:00:00Z","source":{"domain":"coindesk.com"}},
		{"id":124,"title":"second"}
	]}`)

	n := &News{BaseURL: srv.URL + "/posts/", APIKey: "key", Client: NewHTTPClient(time.Second, nil)}
	got := n.Fetch(context.Background(), testProfile)

	assert.Equal(t, dashboard.NewsPayload{
		Title:   "ETF inflows surge",
		Summary: "coindesk.com · 2026-05-04T08:00:00Z",
		URL:     "https://cryptopanic.com/news/123/",
		Source:  "cryptopanic",
	}, got)
}

func TestNews_EmptyResults(t *testing.T) {
	srv := newsServer(t, `{"results":[]}`)

	n := &News{BaseURL: srv.URL, APIKey: "key", Client: NewHTTPClient(time.Second, nil)}
	got := n.Fetch(context.Background(), testProfile).(dashboard.NewsPayload)

	assert.Equal(t, "No major crypto news today", got.Title)
	assert.Equal(t, "CryptoPanic returned no articles.", got.Summary)
}

func TestNews_MissingKey(t *testing.T) {
	n := &News{BaseURL: "http://127.0.0.1:0", Client: NewHTTPClient(time.Second, nil)}
	got := n.Fetch(context.Background(), testProfile).(dashboard.NewsPayload)

	assert.Equal(t, "Crypto news unavailable", got.Title)
	assert.Equal(t, "Missing CryptoPanic API key.", got.Summary)
}

func TestNews_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	n := &News{BaseURL: srv.URL, APIKey: "key", Client: NewHTTPClient(50*time.Millisecond, nil)}
	got := n.Fetch(context.Background(), testProfile).(dashboard.NewsPayload)

	assert.Equal(t, "Crypto news unavailable", got.Title)
	assert.Contains(t, got.Summary, "request failed")
}

func TestPostURL(t *testing.T) {
	testCases := []struct {
		name string
		post cryptoPanicPost
		want string
	}{
		{"direct url", cryptoPanicPost{URL: "https://x.test/a", ID: "1"}, "https://x.test/a"},
		{"id", cryptoPanicPost{ID: "99"}, "https://cryptopanic.com/news/99/"},
		{"slug", cryptoPanicPost{Slug: "btc-news"}, "https://cryptopanic.com/news/?search=btc-news"},
		{"title", cryptoPanicPost{Title: "BTC up"}, "https://cryptopanic.com/news/?search=BTC+up"},
		{"nothing", cryptoPanicPost{}, "https://cryptopanic.com/news/"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, postURL(tc.post))
		})
	}
}
