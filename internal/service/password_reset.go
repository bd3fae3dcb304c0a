package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pribylovaa/credential-service/internal/pkg/log"
	"github.com/pribylovaa/credential-service/internal/pkg/redact"
	"github.com/pribylovaa/credential-service/internal/resetvault"
	"github.com/pribylovaa/credential-service/internal/storage"
)

// commonPasswords — минимальный список заведомо слабых паролей.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"letmein123":  {},
}

// validatePassword проверяет минимальные требования к паролю:
// длина >= 8, не только цифры, не из списка распространённых.
func validatePassword(pw string) error {
	const op = "service.password_reset.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	allDigits := true
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

// ForgotPassword выпускает reset-токен для пользователя с данным email.
//
// Неизвестный email возвращает ErrUserNotFound: референсный контракт
// сознательно различает этот случай (enumeration-оракул, см. DESIGN.md).
// Доставка уведомления запускается vault-ом асинхронно.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, string, error) {
	const op = "service.password_reset.ForgotPassword"

	normEmail, err := validateEmail(email)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.vault.Issue(ctx, user.Email, user.ID, user.FullName)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("reset_token_issued",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
		slog.String("token", redact.Token()),
	)

	return token, user.Email, nil
}

// ResetPassword потребляет reset-токен и устанавливает новый пароль.
//
// Сначала проверяются подтверждение и сложность нового пароля, и только
// потом потребляется токен: невалидный ввод не сжигает одноразовый токен.
// После успешного Consume токен исчезает независимо от исхода обновления
// пароля.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, newPasswordConfirm string) error {
	const op = "service.password_reset.ResetPassword"

	if newPassword != newPasswordConfirm {
		return fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entry, err := s.vault.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, resetvault.ErrTokenNotFound) {
			return fmt.Errorf("%s: %w", op, ErrResetTokenInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, entry.UserID, hashed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Пользователь исчез между выпуском и потреблением токена.
			return fmt.Errorf("%s: %w", op, ErrResetTokenInvalid)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("password_reset_done",
		slog.String("op", op),
		slog.String("user_id", entry.UserID.String()),
		slog.String("email", redact.Email(entry.Email)),
	)

	return nil
}
