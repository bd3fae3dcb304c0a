package models

import "time"

// TokenPair — пара токенов, выдаваемая при аутентификации/регистрации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — долгоживущий JWT с уникальным jti; отзывается
//     индивидуально через blacklist (см. internal/tokens);
//   - AccessTTL/RefreshTTL — сроки жизни токенов на момент выпуска,
//     транспорт отдаёт их клиенту в целых секундах.
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для выпуска новой пары; отзываемый.
	RefreshToken string
	// AccessTTL — срок жизни access-токена.
	AccessTTL time.Duration
	// RefreshTTL — срок жизни refresh-токена.
	RefreshTTL time.Duration
}
