package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"cryptodash/internal/dashboard"
	"cryptodash/internal/logger"
	"cryptodash/internal/metrics"
)

const cryptoPanicWeb = "https://cryptopanic.com/news/"

// News reads the top "hot" post from the CryptoPanic developer API.
type News struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type cryptoPanicResponse struct {
	Results []cryptoPanicPost `json:"results"`
}

type cryptoPanicPost struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Slug        string      `json:"slug"`
	PublishedAt string      `json:"published_at"`
	Source      struct {
		Domain string `json:"domain"`
	} `json:"source"`
}

func (n *News) Fetch(ctx context.Context, prof dashboard.Profile) dashboard.Payload {
	if n.APIKey == "" {
		metrics.ProviderFetch("news", metrics.OutcomeFallback)
		return newsFallback("Crypto news unavailable", "Missing CryptoPanic API key.")
	}

	q := url.Values{}
	q.Set("auth_token", n.APIKey)
	q.Set("currencies", strings.Join(prof.Assets, ","))
	q.Set("kind", "news")
	q.Set("filter", "hot")
	q.Set("public", "true")

	sep := "?"
	if strings.Contains(n.BaseURL, "?") {
		sep = "&"
	}

	var data cryptoPanicResponse
	if err := getJSON(ctx, n.Client, n.BaseURL+sep+q.Encode(), nil, &data); err != nil {
		logger.Warn("cryptopanic fetch failed", logger.ErrorField(err))
		metrics.ProviderFetch("news", metrics.OutcomeFallback)
		return newsFallback("Crypto news unavailable", "CryptoPanic request failed (network/provider error).")
	}
	if len(data.Results) == 0 {
		metrics.ProviderFetch("news", metrics.OutcomeFallback)
		return newsFallback("No major crypto news today", "CryptoPanic returned no articles.")
	}

	top := data.Results[0]
	title := strings.TrimSpace(top.Title)
	if title == "" {
		title = "Top crypto news"
	}

	metrics.ProviderFetch("news", metrics.OutcomeOK)
	return dashboard.NewsPayload{
		Title:   title,
		Summary: strings.Trim(top.Source.Domain+" · "+top.PublishedAt, " ·"),
		URL:     postURL(top),
		Source:  "cryptopanic",
	}
}

// postURL links to the article, or to the best CryptoPanic page for it when
// the API omits the direct URL.
func postURL(p cryptoPanicPost) string {
	switch {
	case p.URL != "":
		return p.URL
	case p.ID != "":
		return cryptoPanicWeb + p.ID.String() + "/"
	case p.Slug != "":
		return cryptoPanicWeb + "?search=" + url.QueryEscape(p.Slug)
	case strings.TrimSpace(p.Title) != "":
		return cryptoPanicWeb + "?search=" + url.QueryEscape(strings.TrimSpace(p.Title))
	}
	return cryptoPanicWeb
}

func newsFallback(title, summary string) dashboard.NewsPayload {
	return dashboard.NewsPayload{
		Title:   title,
		Summary: summary,
		URL:     cryptoPanicWeb,
		Source:  "cryptopanic",
	}
}
