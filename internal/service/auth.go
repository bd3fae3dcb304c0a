package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/credential-service/internal/models"
	"github.com/pribylovaa/credential-service/internal/pkg/log"
	"github.com/pribylovaa/credential-service/internal/pkg/redact"
	"github.com/pribylovaa/credential-service/internal/storage"
	"github.com/pribylovaa/credential-service/internal/tokens"
)

// RegisterUser регистрирует нового пользователя и сразу выпускает пару токенов.
func (s *Service) RegisterUser(ctx context.Context, email, fullName, password, passwordConfirm string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RegisterUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	fullName = strings.TrimSpace(fullName)
	if len([]rune(fullName)) < 2 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidFullName)
	}

	if password != passwordConfirm {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		FullName:     fullName,
		PasswordHash: hashed,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuer.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, pair, nil
}

// LoginUser выполняет вход по email+пароль.
//
// "Пользователь не найден" и "неверный пароль" сведены к одной ошибке
// ErrInvalidCredentials — login не раскрывает существование адреса.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountDisabled)
	}

	now := time.Now().UTC()
	if err := s.storage.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Неудача фиксации last_login не мешает входу.
		log.From(ctx).Warn("last_login_update_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
	user.LastLoginAt = now

	pair, err := s.issuer.Issue(ctx, user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// LogoutUser отзывает предъявленный refresh-токен.
// Уже выданный access-токен остаётся действительным до собственного
// истечения — это осознанная асимметрия контракта.
func (s *Service) LogoutUser(ctx context.Context, refreshToken string) error {
	const op = "service.auth.LogoutUser"

	if err := s.issuer.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_logged_out", slog.String("op", op))

	return nil
}

// Profile возвращает пользователя по ID (для GET /profile).
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.auth.Profile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ValidateAccess проверяет access-токен и возвращает subject и email.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) (uuid.UUID, string, error) {
	const op = "service.auth.ValidateAccess"

	claims, err := s.issuer.ParseAccess(ctx, accessToken)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := claims.UserID()
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, tokens.ErrInvalidToken)
	}

	return uid, claims.Email, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и нормализует его (trim + lower).
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}
