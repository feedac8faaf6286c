package handler

import (
	"net/http"

	"cryptodash/internal/auth"
	"cryptodash/internal/preferences"
)

type MeHandler struct {
	Prefs *preferences.Service
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	has, err := h.Prefs.Exists(r.Context(), u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":              u.ID,
		"email":           u.Email,
		"name":            u.Name,
		"has_preferences": has,
	})
}
