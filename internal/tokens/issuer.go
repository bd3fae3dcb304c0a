// tokens выпускает подписанные пары access/refresh токенов и ведёт
// blacklist отозванных refresh-токенов.
//
// Оба токена — HS256 JWT с sub, iat, exp, iss и уникальным jti.
// Отзыв (logout) записывает jti refresh-токена в KV-хранилище с TTL,
// равным ОСТАВШЕМУСЯ сроку жизни токена: запись blacklist исчезает ровно
// тогда, когда токен истёк бы сам — список не растёт неограниченно и не
// переживает то, что блокирует. Уже выданный access-токен отзыв не
// затрагивает: он действует до собственного (короткого) истечения.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/credential-service/internal/config"
	"github.com/pribylovaa/credential-service/internal/kvstore"
	"github.com/pribylovaa/credential-service/internal/models"
)

var (
	// ErrInvalidToken — токен некорректен по формату/подписи либо не того типа.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked — refresh-токен отозван и недействителен независимо от срока.
	ErrTokenRevoked = errors.New("token revoked")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	blacklistPrefix = "token_blacklist:"
)

// Claims — общий набор claims для access- и refresh-токенов.
type Claims struct {
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID возвращает subject как uuid.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Issuer выпускает, проверяет и отзывает токены.
// Blacklist принадлежит исключительно Issuer: никакой другой компонент
// его не изменяет.
type Issuer struct {
	cfg   config.AuthConfig
	store kvstore.Store
	now   func() time.Time
}

// New создаёт Issuer поверх KV-хранилища.
func New(cfg config.AuthConfig, store kvstore.Store) *Issuer {
	return &Issuer{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) sign(userID uuid.UUID, email, tokenType string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(i.cfg.JWTSecret))
}

// Issue выпускает новую пару access+refresh токенов для пользователя.
func (i *Issuer) Issue(_ context.Context, userID uuid.UUID, email string) (*models.TokenPair, error) {
	const op = "tokens.Issue"

	now := i.now().UTC()

	access, err := i.sign(userID, email, tokenTypeAccess, i.cfg.AccessTokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := i.sign(userID, email, tokenTypeRefresh, i.cfg.RefreshTokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    i.cfg.AccessTokenTTL,
		RefreshTTL:   i.cfg.RefreshTokenTTL,
	}, nil
}

// parse проверяет подпись и срок токена и сверяет его тип.
func (i *Issuer) parse(tokenStr, wantType string) (*Claims, error) {
	const op = "tokens.parse"

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(i.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.TokenType != wantType || claims.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// ParseAccess валидирует access-токен и возвращает его claims.
func (i *Issuer) ParseAccess(_ context.Context, tokenStr string) (*Claims, error) {
	const op = "tokens.ParseAccess"

	claims, err := i.parse(tokenStr, tokenTypeAccess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// ParseRefresh валидирует refresh-токен: подпись, срок и blacklist.
func (i *Issuer) ParseRefresh(ctx context.Context, tokenStr string) (*Claims, error) {
	const op = "tokens.ParseRefresh"

	claims, err := i.parse(tokenStr, tokenTypeRefresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := i.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	return claims, nil
}

// Revoke отзывает refresh-токен: после проверки подписи и срока его jti
// попадает в blacklist на остаток жизни токена.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	const op = "tokens.Revoke"

	claims, err := i.ParseRefresh(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	remaining := claims.ExpiresAt.Sub(i.now())
	if remaining <= 0 {
		return fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	if err := i.store.Set(ctx, blacklistPrefix+claims.ID, []byte("1"), remaining); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsRevoked сообщает, отозван ли токен с данным jti.
func (i *Issuer) IsRevoked(ctx context.Context, jti string) (bool, error) {
	const op = "tokens.IsRevoked"

	_, err := i.store.Get(ctx, blacklistPrefix+jti)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
