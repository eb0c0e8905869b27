package handler

import (
	"net/http"
)

type loginRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

type refreshRequest struct {
	Jwt string `json:"jwt" validate:"required"`
}

type tokenResponse struct {
	Jwt string `json:"jwt"`
}

// Login exchanges {email, code} for {jwt}. Every domain failure is the
// same bodyless 401.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	jwt, err := h.auth.Login(req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tokenResponse{Jwt: jwt})
}

// RefreshToken re-mints an expired session token or echoes a fresh one.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	jwt, err := h.auth.Refresh(req.Jwt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tokenResponse{Jwt: jwt})
}
