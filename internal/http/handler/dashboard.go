package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"cryptodash/internal/auth"
	"cryptodash/internal/dashboard"
)

type DashboardHandler struct {
	Svc *dashboard.Service
}

type dashboardItemResp struct {
	ID       uint64             `json:"id"`
	ItemType dashboard.ItemType `json:"item_type"`
	Payload  json.RawMessage    `json:"payload"`
	UserVote *int               `json:"user_vote"`
}

type dashboardResp struct {
	Date  string              `json:"date"`
	Items []dashboardItemResp `json:"items"`
}

func (h *DashboardHandler) Today(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	d, err := h.Svc.Today(r.Context(), u.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	out := dashboardResp{
		Date:  d.Date.Format(time.DateOnly),
		Items: make([]dashboardItemResp, 0, len(d.Items)),
	}
	for _, e := range d.Items {
		out.Items = append(out.Items, dashboardItemResp{
			ID:       e.Item.ID,
			ItemType: e.Item.ItemType,
			Payload:  e.Item.Payload,
			UserVote: e.UserVote,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type voteReq struct {
	DashboardItemID *uint64 `json:"dashboard_item_id"`
	Value           *int    `json:"value"`
}

type voteResp struct {
	DashboardItemID uint64 `json:"dashboard_item_id"`
	Value           int    `json:"value"`
}

func (h *DashboardHandler) Vote(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req voteReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.DashboardItemID == nil {
		WriteError(w, r, missingField("dashboard_item_id"))
		return
	}
	if req.Value == nil {
		WriteError(w, r, missingField("value"))
		return
	}

	v, err := h.Svc.Vote(r.Context(), u.ID, *req.DashboardItemID, *req.Value)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voteResp{DashboardItemID: v.DashboardItemID, Value: v.Value})
}
