// Package providers fetches dashboard content from external APIs. Every
// provider degrades to a fallback payload instead of returning an error.
package providers

import (
	"time"

	"golang.org/x/time/rate"

	"cryptodash/internal/cache"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
)

const (
	pricesTimeout  = 10 * time.Second
	newsTimeout    = 10 * time.Second
	memeTimeout    = 10 * time.Second
	insightTimeout = 45 * time.Second
)

// New wires the four providers from configuration. pool backs the meme
// cache; the returned Memes is also used to warm it.
func New(cfg config.Config, pool cache.Store[[]dashboard.MemePayload]) (dashboard.Providers, *Memes) {
	memes := &Memes{
		BaseURL: cfg.RedditBaseURL,
		Client:  NewHTTPClient(memeTimeout, rate.NewLimiter(rate.Every(time.Second), 2)),
		Pool:    cache.NewTTL(pool, cfg.MemeCacheTTL, time.Now),
	}

	return dashboard.Providers{
		News: &News{
			BaseURL: cfg.CryptoPanicBaseURL,
			APIKey:  cfg.CryptoPanicAPIKey,
			Client:  NewHTTPClient(newsTimeout, rate.NewLimiter(rate.Every(time.Second), 5)),
		},
		Prices: &Prices{
			BaseURL: cfg.CoinGeckoBaseURL,
			Client:  NewHTTPClient(pricesTimeout, rate.NewLimiter(rate.Every(2*time.Second), 5)),
		},
		Insight: NewInsight(cfg.HFToken, cfg.HFRouterBaseURL, cfg.HFModel,
			NewHTTPClient(insightTimeout, rate.NewLimiter(rate.Every(time.Second), 5))),
		Meme: memes,
	}, memes
}
