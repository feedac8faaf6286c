package handler

import (
	"net/http"

	"cryptodash/internal/auth"
	"cryptodash/internal/preferences"
)

type PreferencesHandler struct {
	Svc *preferences.Service
}

type preferencesBody struct {
	Assets       []string `json:"assets"`
	InvestorType string   `json:"investor_type"`
	ContentTypes []string `json:"content_types"`
}

func toPreferencesBody(p *preferences.Preference) preferencesBody {
	return preferencesBody{
		Assets:       p.Assets,
		InvestorType: p.InvestorType,
		ContentTypes: p.ContentTypes,
	}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	p, err := h.Svc.Get(r.Context(), u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesBody(p))
}

func (h *PreferencesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req preferencesBody
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	p, err := h.Svc.Upsert(r.Context(), u.ID, req.Assets, req.InvestorType, req.ContentTypes)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesBody(p))
}
