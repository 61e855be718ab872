package rest

import (
	"net/http"

	"github.com/louisbranch/freshcart/internal/auth"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserPayload(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserPayload(user)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := requestToken(r)
	if !ok {
		writeError(w, r, apperrors.New(apperrors.CodeAuthUnauthenticated, "authentication required"))
		return
	}
	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	clearSessionCookie(w, r)
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	user, err := h.auth.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(user))
}
