// service содержит бизнес-логику сервиса учётных данных:
// регистрацию/аутентификацию пользователей, выпуск/отзыв токенов и
// самостоятельный сброс пароля через reset-токены.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при
//     условии, что переданные зависимости потокобезопасны.
//   - Ошибки возвращаются как sentinel-значения и маппятся HTTP-слоем
//     в формат {message, errors} (см. transport/http/httperr).
package service

import (
	"errors"

	"github.com/pribylovaa/credential-service/internal/resetvault"
	"github.com/pribylovaa/credential-service/internal/storage"
	"github.com/pribylovaa/credential-service/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь
	// не найден. Намеренно один и тот же ответ для обоих случаев,
	// чтобы login не служил оракулом существования email.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled — учётная запись деактивирована.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrEmailTaken — email уже занят другим пользователем.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — email имеет некорректный формат.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidFullName — полное имя короче двух символов.
	ErrInvalidFullName = errors.New("invalid full name")

	// ErrPasswordMismatch — пароль и его подтверждение не совпадают.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrUserNotFound — пользователь с таким email не найден.
	// Отдаётся наружу ТОЛЬКО из forgot-password: референсный контракт
	// различает неизвестный email в этом потоке (см. DESIGN.md — это
	// осознанно сохранённый enumeration-оракул).
	ErrUserNotFound = errors.New("user not found")

	// ErrResetTokenInvalid — reset-токен не существует, истёк или уже потреблён.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)

// Service описывает бизнес-логику сервиса.
type Service struct {
	storage storage.Storage
	issuer  *tokens.Issuer
	vault   *resetvault.Vault
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, issuer *tokens.Issuer, vault *resetvault.Vault) *Service {
	return &Service{
		storage: st,
		issuer:  issuer,
		vault:   vault,
	}
}
