// ratelimit реализует скользящее окно по журналу запросов
// поверх общего KV-хранилища.
//
// Для каждой пары (клиент, конечная точка) хранится список меток времени
// запросов внутри текущего окна. Проверка: отбросить метки старше окна,
// отклонить при достижении лимита, иначе дописать текущую метку и сохранить
// с TTL = окну — нетронутый счётчик исчезает сам, фоновая очистка не нужна.
//
// Последовательность read-prune-append НЕ атомарна между Get и Set:
// два одновременных запроса одного клиента могут оба пройти, когда
// оставался один слот. Это задокументированный best-effort компромисс —
// лимитер сдерживает злоупотребления, а не ведёт точную квоту.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/pribylovaa/credential-service/internal/config"
	"github.com/pribylovaa/credential-service/internal/kvstore"
	"github.com/pribylovaa/credential-service/internal/pkg/log"
)

// Имена конечных точек, известных лимитеру.
const (
	EndpointLogin          = "login"
	EndpointRegister       = "register"
	EndpointForgotPassword = "forgot-password"
	EndpointResetPassword  = "reset-password"
)

// Decision — результат проверки лимита.
type Decision struct {
	// Allowed — запрос пропущен.
	Allowed bool
	// RetryAfter — консервативная подсказка клиенту (равна окну целиком,
	// а не точному времени до освобождения слота).
	RetryAfter time.Duration
	// Remaining — сколько запросов осталось в окне после этого.
	Remaining int
}

// Limiter — скользящее окно per-(client, endpoint).
type Limiter struct {
	store    kvstore.Store
	policies map[string]config.RatePolicy
	now      func() time.Time
}

// New создаёт лимитер с политиками из конфигурации.
func New(store kvstore.Store, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		store: store,
		policies: map[string]config.RatePolicy{
			EndpointLogin:          cfg.Login,
			EndpointRegister:       cfg.Register,
			EndpointForgotPassword: cfg.ForgotPassword,
			EndpointResetPassword:  cfg.ResetPassword,
		},
		now: time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func counterKey(clientID, endpoint string) string {
	return "rate_limit:" + clientID + ":" + endpoint
}

// Allow проверяет лимит для пары (clientID, endpoint).
//
// Конечная точка без политики пропускается всегда. Недоступность
// хранилища не валит запрос: лимитер fail-open с предупреждением в логе,
// сдерживание злоупотреблений не должно останавливать сервис.
func (l *Limiter) Allow(ctx context.Context, clientID, endpoint string) Decision {
	const op = "ratelimit.Allow"

	policy, ok := l.policies[endpoint]
	if !ok || policy.Limit <= 0 {
		return Decision{Allowed: true}
	}

	lg := log.From(ctx)
	key := counterKey(clientID, endpoint)
	now := l.now().Unix()
	windowSec := int64(policy.Window / time.Second)

	var stamps []int64
	raw, err := l.store.Get(ctx, key)
	switch {
	case err == nil:
		if uerr := json.Unmarshal(raw, &stamps); uerr != nil {
			// Битый счётчик начинаем заново.
			lg.Warn("rate_counter_corrupted",
				slog.String("op", op),
				slog.String("endpoint", endpoint),
			)
			stamps = nil
		}
	case errors.Is(err, kvstore.ErrNotFound):
		// Первый запрос пары (клиент, конечная точка).
	default:
		lg.Warn("rate_store_unavailable",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return Decision{Allowed: true}
	}

	// Отбрасываем метки за пределами окна.
	kept := stamps[:0]
	for _, ts := range stamps {
		if now-ts < windowSec {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= policy.Limit {
		return Decision{
			Allowed:    false,
			RetryAfter: policy.Window,
		}
	}

	kept = append(kept, now)

	raw, err = json.Marshal(kept)
	if err != nil {
		return Decision{Allowed: true, Remaining: policy.Limit - len(kept)}
	}

	if err := l.store.Set(ctx, key, raw, policy.Window); err != nil {
		lg.Warn("rate_store_unavailable",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return Decision{
		Allowed:   true,
		Remaining: policy.Limit - len(kept),
	}
}

// Window возвращает окно политики конечной точки (0 — политики нет).
func (l *Limiter) Window(endpoint string) time.Duration {
	return l.policies[endpoint].Window
}
