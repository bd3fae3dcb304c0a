package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/credential-service/internal/config"
	"github.com/pribylovaa/credential-service/internal/kvstore/memory"
	"github.com/pribylovaa/credential-service/internal/models"
	"github.com/pribylovaa/credential-service/internal/ratelimit"
	"github.com/pribylovaa/credential-service/internal/resetvault"
	"github.com/pribylovaa/credential-service/internal/service"
	"github.com/pribylovaa/credential-service/internal/storage"
	"github.com/pribylovaa/credential-service/internal/tokens"
	"github.com/pribylovaa/credential-service/internal/transport/http/handlers"
	"github.com/pribylovaa/credential-service/mocks"
)

func testAuthCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "router-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 168 * time.Hour,
		Issuer:          "credential-service",
	}
}

type testEnv struct {
	handler http.Handler
	st      *mocks.MockStorage
	svc     *service.Service
}

// newTestEnv собирает полный HTTP-стек: роутер, настоящие
// issuer/vault/limiter поверх in-memory KV и мок-хранилище пользователей.
func newTestEnv(t *testing.T, rl config.RateLimitConfig) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	kv := memory.New()

	issuer := tokens.New(testAuthCfg(), kv)
	vault := resetvault.New(kv, nil, 10*time.Minute)
	lim := ratelimit.New(kv, rl)
	svc := service.New(st, issuer, vault)

	h := handlers.New(svc, st, kv)
	router := NewRouter(h, lim, svc, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &testEnv{handler: router, st: st, svc: svc}
}

// generousLimits — политики, не мешающие функциональным сценариям.
func generousLimits() config.RateLimitConfig {
	p := config.RatePolicy{Limit: 1000, Window: time.Hour}
	return config.RateLimitConfig{Login: p, Register: p, ForgotPassword: p, ResetPassword: p}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "192.0.2.1:54321"
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), into))
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type authEnvelope struct {
	Message string `json:"message"`
	User    struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"user"`
	Tokens struct {
		Access          string `json:"access"`
		Refresh         string `json:"refresh"`
		AccessLifetime  int64  `json:"access_token_lifetime"`
		RefreshLifetime int64  `json:"refresh_token_lifetime"`
	} `json:"tokens"`
}

type errEnvelope struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func TestRegister_Created(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").
		Return(nil, storage.ErrNotFound)
	env.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	rr := env.do(t, http.MethodPost, "/register", map[string]string{
		"email":            "alice@example.com",
		"full_name":        "Alice Smith",
		"password":         "StrongPass1!",
		"password_confirm": "StrongPass1!",
	}, nil)

	require.Equal(t, http.StatusCreated, rr.Code)

	var body authEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, "User registered successfully", body.Message)
	require.Equal(t, "alice@example.com", body.User.Email)
	require.Equal(t, "Alice Smith", body.User.FullName)
	require.NotEmpty(t, body.Tokens.Access)
	require.NotEmpty(t, body.Tokens.Refresh)
	require.Equal(t, int64(3600), body.Tokens.AccessLifetime)
	require.Equal(t, int64(604800), body.Tokens.RefreshLifetime)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").
		Return(&models.User{ID: uuid.New(), Email: "alice@example.com"}, nil)

	rr := env.do(t, http.MethodPost, "/register", map[string]string{
		"email":            "alice@example.com",
		"full_name":        "Alice Smith",
		"password":         "StrongPass1!",
		"password_confirm": "StrongPass1!",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, "Registration failed", body.Message)
	require.Equal(t, []string{"A user with this email already exists."}, body.Errors["email"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	cases := []struct {
		name      string
		payload   map[string]string
		wantField string
	}{
		{
			name: "bad_email",
			payload: map[string]string{
				"email": "nope", "full_name": "Alice",
				"password": "StrongPass1!", "password_confirm": "StrongPass1!",
			},
			wantField: "email",
		},
		{
			name: "short_name",
			payload: map[string]string{
				"email": "a@e.com", "full_name": "a",
				"password": "StrongPass1!", "password_confirm": "StrongPass1!",
			},
			wantField: "full_name",
		},
		{
			name: "mismatch",
			payload: map[string]string{
				"email": "a@e.com", "full_name": "Alice",
				"password": "StrongPass1!", "password_confirm": "Other1!",
			},
			wantField: "password_confirm",
		},
		{
			name: "weak_password",
			payload: map[string]string{
				"email": "a@e.com", "full_name": "Alice",
				"password": "short", "password_confirm": "short",
			},
			wantField: "password",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/register", tc.payload, nil)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var body errEnvelope
			decodeBody(t, rr, &body)
			require.Contains(t, body.Errors, tc.wantField)
		})
	}
}

func TestRegister_UnknownFieldInBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	rr := env.do(t, http.MethodPost, "/register", map[string]string{
		"email":   "a@e.com",
		"unknown": "field",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, []string{"Invalid request body."}, body.Errors["non_field_errors"])
}

func TestLogin_OK_ThenProfileWithAccessToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	uid := uuid.New()
	user := &models.User{
		ID:           uid,
		Email:        "alice@example.com",
		FullName:     "Alice Smith",
		PasswordHash: mustHash(t, "StrongPass1!"),
		IsActive:     true,
	}

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
	env.st.EXPECT().UpdateLastLogin(gomock.Any(), uid, gomock.Any()).Return(nil)

	rr := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "StrongPass1!",
	}, nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var body authEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, "Login successful", body.Message)

	// Access-токен открывает /profile.
	env.st.EXPECT().UserByID(gomock.Any(), uid).Return(user, nil)

	rr = env.do(t, http.MethodGet, "/profile", nil, map[string]string{
		"Authorization": "Bearer " + body.Tokens.Access,
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var profile struct {
		Message string `json:"message"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeBody(t, rr, &profile)
	require.Equal(t, "User profile retrieved successfully", profile.Message)
	require.Equal(t, "alice@example.com", profile.User.Email)
}

func TestLogin_InvalidCredentials_SameBodyForBothCauses(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	// Несуществующий пользователь.
	env.st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	rr := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "StrongPass1!",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var first errEnvelope
	decodeBody(t, rr, &first)

	// Неверный пароль существующего пользователя.
	user := &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "StrongPass1!"),
		IsActive:     true,
	}
	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)

	rr = env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPass1!",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var second errEnvelope
	decodeBody(t, rr, &second)

	// Обе причины дают неотличимый ответ.
	require.Equal(t, first, second)
	require.Equal(t, []string{"Invalid email or password."}, second.Errors["non_field_errors"])
}

// TestLogin_RateLimited — шестая попытка входа с одного адреса получает
// 429 с retry_after в секундах.
func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()

	rl := generousLimits()
	rl.Login = config.RatePolicy{Limit: 5, Window: 300 * time.Second}
	env := newTestEnv(t, rl)

	env.st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound).Times(5)

	for i := 0; i < 5; i++ {
		rr := env.do(t, http.MethodPost, "/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "WrongPass1!",
		}, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "WrongPass1!",
	}, nil)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var body struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retry_after"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, "Rate limit exceeded", body.Error)
	require.Equal(t, 300, body.RetryAfter)
}

func TestLogout_RevokesRefresh_SecondCallFails(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	uid := uuid.New()
	user := &models.User{
		ID:           uid,
		Email:        "alice@example.com",
		PasswordHash: mustHash(t, "StrongPass1!"),
		IsActive:     true,
	}

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
	env.st.EXPECT().UpdateLastLogin(gomock.Any(), uid, gomock.Any()).Return(nil)

	rr := env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "StrongPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body authEnvelope
	decodeBody(t, rr, &body)

	authHeader := map[string]string{"Authorization": "Bearer " + body.Tokens.Access}

	rr = env.do(t, http.MethodPost, "/logout",
		map[string]string{"refresh_token": body.Tokens.Refresh}, authHeader)
	require.Equal(t, http.StatusOK, rr.Code)

	var ok struct {
		Message string `json:"message"`
	}
	decodeBody(t, rr, &ok)
	require.Equal(t, "Logout successful", ok.Message)

	// Access-токен остаётся рабочим и после logout.
	env.st.EXPECT().UserByID(gomock.Any(), uid).Return(user, nil)
	rr = env.do(t, http.MethodGet, "/profile", nil, authHeader)
	require.Equal(t, http.StatusOK, rr.Code)

	// Повторный logout с тем же refresh-токеном отклоняется.
	rr = env.do(t, http.MethodPost, "/logout",
		map[string]string{"refresh_token": body.Tokens.Refresh}, authHeader)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var failed errEnvelope
	decodeBody(t, rr, &failed)
	require.Equal(t, "Logout failed", failed.Message)
	require.Contains(t, failed.Errors, "refresh_token")
}

func TestLogout_WithoutBearer_Unauthorized(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	rr := env.do(t, http.MethodPost, "/logout",
		map[string]string{"refresh_token": "whatever"}, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProfile_WithoutToken_Unauthorized(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	rr := env.do(t, http.MethodGet, "/profile", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var body errEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, "Authentication required", body.Message)
}

func TestForgotPassword_ReturnsTokenAndEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	uid := uuid.New()
	user := &models.User{ID: uid, Email: "alice@example.com", FullName: "Alice"}

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)

	rr := env.do(t, http.MethodPost, "/forgot-password",
		map[string]string{"email": "alice@example.com"}, nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Message string `json:"message"`
		Email   string `json:"email"`
		Token   string `json:"token"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, "Password reset token sent to your email", body.Message)
	require.Equal(t, "alice@example.com", body.Email)
	require.Len(t, body.Token, 32)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	env.st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	rr := env.do(t, http.MethodPost, "/forgot-password",
		map[string]string{"email": "ghost@example.com"}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errEnvelope
	decodeBody(t, rr, &body)
	require.Equal(t, "Failed to generate reset token", body.Message)
	require.Equal(t, []string{"No user found with this email address."}, body.Errors["email"])
}

// TestPasswordResetFlow — полный цикл: forgot -> reset -> вход с новым
// паролем, повторный reset тем же токеном отклоняется.
func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	uid := uuid.New()
	user := &models.User{
		ID:           uid,
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: mustHash(t, "OldStrongPass1!"),
		IsActive:     true,
	}

	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)

	rr := env.do(t, http.MethodPost, "/forgot-password",
		map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var forgot struct {
		Token string `json:"token"`
	}
	decodeBody(t, rr, &forgot)

	env.st.EXPECT().UpdatePassword(gomock.Any(), uid, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, hash string) error {
			user.PasswordHash = hash
			return nil
		})

	rr = env.do(t, http.MethodPost, "/reset-password", map[string]string{
		"token":                forgot.Token,
		"new_password":         "NewStrongPass1!",
		"new_password_confirm": "NewStrongPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var reset struct {
		Message string `json:"message"`
	}
	decodeBody(t, rr, &reset)
	require.Equal(t, "Password reset successful", reset.Message)

	// Вход с новым паролем.
	env.st.EXPECT().UserByEmail(gomock.Any(), "alice@example.com").Return(user, nil)
	env.st.EXPECT().UpdateLastLogin(gomock.Any(), uid, gomock.Any()).Return(nil)

	rr = env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "alice@example.com",
		"password": "NewStrongPass1!",
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Токен одноразовый.
	rr = env.do(t, http.MethodPost, "/reset-password", map[string]string{
		"token":                forgot.Token,
		"new_password":         "AnotherPass1!",
		"new_password_confirm": "AnotherPass1!",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var failed errEnvelope
	decodeBody(t, rr, &failed)
	require.Equal(t, "Password reset failed", failed.Message)
	require.Equal(t, []string{"Invalid or expired token"}, failed.Errors["token"])
}

func TestResetPassword_FieldNamesForPasswordErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	rr := env.do(t, http.MethodPost, "/reset-password", map[string]string{
		"token":                "irrelevant",
		"new_password":         "NewStrongPass1!",
		"new_password_confirm": "Mismatch1!",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body errEnvelope
	decodeBody(t, rr, &body)
	// Поток reset-password использует имена new_password/new_password_confirm.
	require.Contains(t, body.Errors, "new_password_confirm")
}

func TestHealth_OK(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	env.st.EXPECT().Ping(gomock.Any()).Return(nil)
	env.st.EXPECT().CountUsers(gomock.Any()).Return(int64(42), nil)

	rr := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Database   string `json:"database"`
		TotalUsers int64  `json:"total_users"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, "connected", body.Database)
	require.Equal(t, int64(42), body.TotalUsers)
}

func TestHealth_DatabaseDown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, generousLimits())

	env.st.EXPECT().Ping(gomock.Any()).Return(errors.New("db down"))

	rr := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, "unhealthy", body.Status)
	require.Equal(t, "disconnected", body.Database)
}

// TestBasePath_MountsRoutesUnderPrefix — маршруты доступны под BasePath
// и недоступны на корне.
func TestBasePath_MountsRoutesUnderPrefix(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	kv := memory.New()
	issuer := tokens.New(testAuthCfg(), kv)
	vault := resetvault.New(kv, nil, 10*time.Minute)
	svc := service.New(st, issuer, vault)

	router := NewRouter(handlers.New(svc, st, kv), ratelimit.New(kv, generousLimits()), svc, Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		BasePath: "/api/v1/auth",
	})

	st.EXPECT().Ping(gomock.Any()).Return(nil)
	st.EXPECT().CountUsers(gomock.Any()).Return(int64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
