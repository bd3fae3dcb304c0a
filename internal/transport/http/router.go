// http собирает HTTP-роутер сервиса: chi + цепочка мидлваров.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/credential-service/internal/ratelimit"
	"github.com/pribylovaa/credential-service/internal/transport/http/handlers"
	"github.com/pribylovaa/credential-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api/v1/auth"; если пустой — роуты на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
//
// Порядок мидлваров (внешний -> внутренний): Recover, RequestID, Logging;
// rate-limit и bearer-auth навешиваются на конкретные маршруты.
func NewRouter(h *handlers.Handlers, lim *ratelimit.Limiter, v middleware.TokenValidator, opts Options) http.Handler {
	root := chi.NewRouter()

	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, lim, v)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, lim, v)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, lim *ratelimit.Limiter, v middleware.TokenValidator) {
	auth := middleware.AuthBearer(v)

	r.With(middleware.RateLimit(lim, ratelimit.EndpointRegister)).
		Post("/register", h.Register)
	r.With(middleware.RateLimit(lim, ratelimit.EndpointLogin)).
		Post("/login", h.Login)
	r.With(auth).Post("/logout", h.Logout)
	r.With(middleware.RateLimit(lim, ratelimit.EndpointForgotPassword)).
		Post("/forgot-password", h.ForgotPassword)
	r.With(middleware.RateLimit(lim, ratelimit.EndpointResetPassword)).
		Post("/reset-password", h.ResetPassword)

	r.With(auth).Get("/profile", h.Profile)
	r.Get("/health", h.Health)
}
