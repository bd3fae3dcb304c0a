package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
)

// TokenValidator проверяет access-токен и возвращает subject и email.
// Контракт сужен до нужд мидлвара, чтобы тесты могли подставить фейк.
type TokenValidator interface {
	ValidateAccess(ctx context.Context, accessToken string) (uuid.UUID, string, error)
}

type ctxKeyUser struct{}

// AuthUser — аутентифицированный пользователь запроса.
type AuthUser struct {
	ID    uuid.UUID
	Email string
}

// UserFrom возвращает аутентифицированного пользователя из контекста.
func UserFrom(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(AuthUser)
	return u, ok
}

// AuthBearer требует валидный Bearer access-токен: извлекает его из
// Authorization, валидирует и кладёт пользователя в контекст.
// Отсутствующий/невалидный токен — 401 без деталей причины.
func AuthBearer(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				httperr.WriteAuthRequired(w)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				httperr.WriteAuthRequired(w)
				return
			}

			uid, email, err := v.ValidateAccess(r.Context(), token)
			if err != nil {
				httperr.WriteAuthRequired(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser{}, AuthUser{ID: uid, Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
