package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeCached   = "cached"
)

var (
	registry = prometheus.NewRegistry()

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cryptodash",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	providerFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptodash",
		Name:      "provider_fetch_total",
		Help:      "Content provider fetches by provider and outcome.",
	}, []string{"provider", "outcome"})
)

func init() {
	registry.MustRegister(
		httpDuration,
		providerFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func ObserveRequest(method, route string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func ProviderFetch(provider, outcome string) {
	providerFetches.WithLabelValues(provider, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
