package middleware

import (
	"log/slog"
	"net/http"

	logctx "github.com/pribylovaa/credential-service/internal/pkg/log"
	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
)

// Recover перехватывает panic и конвертирует её в 500.
// Детали паники не утекают на клиент.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logctx.From(r.Context()).
						LogAttrs(r.Context(), slog.LevelError, "panic",
							slog.String("path", r.URL.Path),
							slog.Any("reason", rec),
						)
					httperr.WriteJSON(w, http.StatusInternalServerError, httperr.ErrorResponse{
						Message: "Internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
