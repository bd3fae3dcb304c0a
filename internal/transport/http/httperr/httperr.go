// httperr стандартизирует ответы об ошибках HTTP-слоя.
//
// На вход — sentinel-ошибка бизнес-логики, на выход — корректный
// HTTP-статус и фиксированный формат {message, errors: {field: [string]}}.
// Формат и тексты повторяют референсный контракт API; маппинг собран
// в одном месте, чтобы хендлеры не дублировали таблицу.
package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/credential-service/internal/pkg/log"
	"github.com/pribylovaa/credential-service/internal/service"
	"github.com/pribylovaa/credential-service/internal/tokens"
)

// ErrorResponse — единый формат ошибки для клиента.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// RateLimitedResponse — формат ответа 429.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Flow определяет контекст запроса: от него зависят заголовочное
// сообщение и имена полей пароля в ответе.
type Flow int

const (
	FlowRegister Flow = iota
	FlowLogin
	FlowLogout
	FlowForgotPassword
	FlowResetPassword
	FlowProfile
)

// headline — сообщение верхнего уровня при ошибке данного потока.
func (f Flow) headline() string {
	switch f {
	case FlowRegister:
		return "Registration failed"
	case FlowLogin:
		return "Login failed"
	case FlowLogout:
		return "Logout failed"
	case FlowForgotPassword:
		return "Failed to generate reset token"
	case FlowResetPassword:
		return "Password reset failed"
	default:
		return "Request failed"
	}
}

// passwordFields возвращает имена полей пароля и подтверждения для потока.
func (f Flow) passwordFields() (string, string) {
	if f == FlowResetPassword {
		return "new_password", "new_password_confirm"
	}

	return "password", "password_confirm"
}

// fieldError — пара (поле, сообщение) для одной sentinel-ошибки.
func fieldError(f Flow, err error) (string, string, bool) {
	pwField, confirmField := f.passwordFields()

	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return "email", "Enter a valid email address.", true
	case errors.Is(err, service.ErrEmailTaken):
		return "email", "A user with this email already exists.", true
	case errors.Is(err, service.ErrInvalidFullName):
		return "full_name", "Full name must be at least 2 characters long.", true
	case errors.Is(err, service.ErrEmptyPassword):
		return pwField, "This field may not be blank.", true
	case errors.Is(err, service.ErrWeakPassword):
		return pwField, "This password is too weak.", true
	case errors.Is(err, service.ErrPasswordMismatch):
		return confirmField, "Passwords do not match.", true
	case errors.Is(err, service.ErrInvalidCredentials):
		return "non_field_errors", "Invalid email or password.", true
	case errors.Is(err, service.ErrAccountDisabled):
		return "non_field_errors", "User account is disabled.", true
	case errors.Is(err, service.ErrUserNotFound):
		return "email", "No user found with this email address.", true
	case errors.Is(err, service.ErrResetTokenInvalid):
		return "token", "Invalid or expired token", true
	case errors.Is(err, tokens.ErrTokenRevoked),
		errors.Is(err, tokens.ErrTokenExpired),
		errors.Is(err, tokens.ErrInvalidToken):
		return "refresh_token", "Invalid token", true
	}

	return "", "", false
}

// Write конвертирует ошибку бизнес-логики в HTTP-ответ потока f.
// Неопознанная ошибка не раскрывается: клиент получает generic 500,
// детали остаются в логе.
func Write(w http.ResponseWriter, r *http.Request, f Flow, err error) {
	if field, msg, ok := fieldError(f, err); ok {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: f.headline(),
			Errors:  map[string][]string{field: {msg}},
		})
		return
	}

	log.From(r.Context()).Error("internal_error",
		slog.String("path", r.URL.Path),
		slog.String("err", err.Error()),
	)

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}

// WriteInvalidBody — ответ на нечитаемое/невалидное тело запроса.
func WriteInvalidBody(w http.ResponseWriter, f Flow) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Message: f.headline(),
		Errors:  map[string][]string{"non_field_errors": {"Invalid request body."}},
	})
}

// WriteAuthRequired — ответ 401 для защищённых маршрутов.
func WriteAuthRequired(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Message: "Authentication required",
		Errors:  map[string][]string{"authorization": {"Invalid or missing access token."}},
	})
}

// WriteRateLimited — ответ 429 с подсказкой retry_after в секундах.
func WriteRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	WriteJSON(w, http.StatusTooManyRequests, RateLimitedResponse{
		Error:      "Rate limit exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: int(retryAfter / time.Second),
	})
}

// WriteJSON — единый ответ JSON с нужным Content-Type.
func WriteJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
