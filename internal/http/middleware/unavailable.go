package middleware

import (
	"encoding/json"
	"net/http"
)

// Unavailable answers 503 for every request when err is non-nil, so routes
// that need the database or token signing fail loudly while the rest of
// the server keeps running.
func Unavailable(err error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if err == nil {
			return next
		}
		body, _ := json.Marshal(map[string]string{"detail": "service unavailable: " + err.Error()})
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write(body)
		})
	}
}
