package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cryptodash/internal/logger"
	"cryptodash/internal/metrics"
)

// AccessLog logs one line per request and records its latency under the
// matched route pattern.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		elapsed := time.Since(start)

		metrics.ObserveRequest(r.Method, route, status, elapsed)
		logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("route", route),
			logger.Int("status", status),
			logger.Duration("duration", elapsed),
			logger.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
