package handler

import (
	"net/http"

	"cryptodash/internal/auth"
)

type AuthHandler struct {
	Svc *auth.Service
}

type signupReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	token, err := h.Svc.Signup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResp{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	token, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResp{AccessToken: token, TokenType: "bearer"})
}
