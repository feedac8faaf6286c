package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"cryptodash/internal/dashboard"
	"cryptodash/internal/logger"
	"cryptodash/internal/metrics"
)

// coinGeckoIDs maps the asset symbols users pick to CoinGecko coin ids.
var coinGeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"XRP":  "ripple",
	"DOGE": "dogecoin",
	"BNB":  "binancecoin",
	"AVAX": "avalanche-2",
	"ADA":  "cardano",
}

// Prices reads USD spot prices from CoinGecko's simple/price endpoint.
type Prices struct {
	BaseURL string
	Client  *http.Client
}

func (p *Prices) Fetch(ctx context.Context, prof dashboard.Profile) dashboard.Payload {
	var ids []string
	for _, sym := range prof.Assets {
		if id, ok := coinGeckoIDs[strings.ToUpper(sym)]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		metrics.ProviderFetch("prices", metrics.OutcomeFallback)
		return dashboard.PricesPayload{
			PricesUSD: map[string]decimal.Decimal{},
			Note:      "No supported assets selected",
		}
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")

	var data map[string]map[string]decimal.Decimal
	if err := getJSON(ctx, p.Client, strings.TrimRight(p.BaseURL, "/")+"/simple/price?"+q.Encode(), nil, &data); err != nil {
		logger.Warn("coingecko fetch failed", logger.ErrorField(err))
		metrics.ProviderFetch("prices", metrics.OutcomeFallback)
		return dashboard.PricesPayload{
			PricesUSD: map[string]decimal.Decimal{},
			Source:    "coingecko",
			Note:      "Prices unavailable (provider error).",
		}
	}

	prices := map[string]decimal.Decimal{}
	for _, sym := range prof.Assets {
		sym = strings.ToUpper(sym)
		if quote, ok := data[coinGeckoIDs[sym]]; ok {
			if usd, ok := quote["usd"]; ok {
				prices[sym] = usd
			}
		}
	}

	metrics.ProviderFetch("prices", metrics.OutcomeOK)
	return dashboard.PricesPayload{PricesUSD: prices, Source: "coingecko"}
}
