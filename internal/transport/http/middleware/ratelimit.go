package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/pribylovaa/credential-service/internal/ratelimit"
	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
)

// RateLimit проверяет лимит конечной точки до диспетчеризации запроса
// и отвечает 429 с retry_after при превышении.
func RateLimit(l *ratelimit.Limiter, endpoint string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.Allow(r.Context(), ClientIP(r), endpoint)
			if !d.Allowed {
				httperr.WriteRateLimited(w, d.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP определяет идентификатор клиента: первая запись
// X-Forwarded-For, если заголовок есть, иначе адрес соединения.
//
// Это осознанное решение доверять вышестоящим прокси: сервис
// рассчитан на запуск за reverse-proxy, который перезаписывает
// заголовок. Без такого прокси заголовок может подделать клиент.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
