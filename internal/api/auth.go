package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tradesenseai/challenge-platform/internal/account"
	"github.com/tradesenseai/challenge-platform/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

const _minPasswordLen = 8

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		h.respondError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if len(req.Password) < _minPasswordLen {
		h.respondError(w, http.StatusBadRequest, "password too short")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		h.logger.Errorf("%s: can't hash password", err)
		h.respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, account.ErrEmailTaken) {
			h.respondError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Errorf("%s: can't create user", err)
		h.respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Errorf("%s: can't generate token", err)
		h.respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.respondJSON(w, http.StatusCreated, authResponse{Token: token, Email: user.Email})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			h.respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Errorf("%s: can't load user", err)
		h.respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := h.authService.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Errorf("%s: can't verify password", err)
		h.respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Errorf("%s: can't generate token", err)
		h.respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.respondJSON(w, http.StatusOK, authResponse{Token: token, Email: user.Email})
}
