package handlers

import (
	"errors"
	"net/http"

	"github.com/pribylovaa/credential-service/internal/storage"
	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
	"github.com/pribylovaa/credential-service/internal/transport/http/middleware"
)

type registerRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    userProfile `json:"user"`
	Tokens  tokenSet    `json:"tokens"`
}

// Register обрабатывает POST /register: создаёт пользователя и сразу
// выдаёт пару токенов (201).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteInvalidBody(w, httperr.FlowRegister)
		return
	}

	user, pair, err := h.svc.RegisterUser(r.Context(), in.Email, in.FullName, in.Password, in.PasswordConfirm)
	if err != nil {
		httperr.Write(w, r, httperr.FlowRegister, err)
		return
	}

	httperr.WriteJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		User:    profileOf(user),
		Tokens:  tokensOf(pair),
	})
}

// Login обрабатывает POST /login.
// Неверные учётные данные — 400 (контракт API), не 401.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteInvalidBody(w, httperr.FlowLogin)
		return
	}

	user, pair, err := h.svc.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.Write(w, r, httperr.FlowLogin, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    profileOf(user),
		Tokens:  tokensOf(pair),
	})
}

// Logout обрабатывает POST /logout (требует Bearer access-токен).
// Отзывается только refresh-токен; access-токен остаётся действительным
// до собственного истечения.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteInvalidBody(w, httperr.FlowLogout)
		return
	}

	if err := h.svc.LogoutUser(r.Context(), in.RefreshToken); err != nil {
		httperr.Write(w, r, httperr.FlowLogout, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Profile обрабатывает GET /profile (требует Bearer access-токен).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		httperr.WriteAuthRequired(w)
		return
	}

	user, err := h.svc.Profile(r.Context(), u.ID)
	if err != nil {
		// Токен валиден, но пользователя уже нет.
		if errors.Is(err, storage.ErrNotFound) {
			httperr.WriteAuthRequired(w)
			return
		}

		httperr.Write(w, r, httperr.FlowProfile, err)
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "User profile retrieved successfully",
		"user":    profileOf(user),
	})
}
