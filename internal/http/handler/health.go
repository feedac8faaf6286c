package handler

import "net/http"

// HealthHandler reports liveness plus which backing pieces are configured.
// It never touches the database.
type HealthHandler struct {
	Service     string
	DatabaseErr error
	AuthErr     error
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"service":  h.Service,
		"database": state(h.DatabaseErr),
		"auth":     state(h.AuthErr),
	})
}

func state(err error) string {
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}
