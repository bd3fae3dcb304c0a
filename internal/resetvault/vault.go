// resetvault — хранилище одноразовых reset-токенов с TTL.
//
// Токен — 32-символьная алфавитно-цифровая строка из CSPRNG; по нему
// в KV-хранилище лежит запись {email, user_id, created_at}. Потребление
// идёт через GetDel: из двух конкурентных подтверждений сброса выигрывает
// ровно одно, повторное использование токена невозможно. Неиспользованный
// токен исчезает по TTL хранилища.
package resetvault

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/credential-service/internal/kvstore"
	"github.com/pribylovaa/credential-service/internal/models"
	"github.com/pribylovaa/credential-service/internal/notify"
	"github.com/pribylovaa/credential-service/internal/pkg/log"
	"github.com/pribylovaa/credential-service/internal/pkg/redact"
)

// ErrTokenNotFound — токен не существует, истёк или уже потреблён.
var ErrTokenNotFound = errors.New("reset token not found")

const (
	tokenLength   = 32
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	keyPrefix     = "password_reset_token:"
)

// Vault выпускает и потребляет reset-токены.
type Vault struct {
	store    kvstore.Store
	notifier notify.Notifier
	ttl      time.Duration
	now      func() time.Time
}

// New создаёт vault. notifier может быть nil — тогда уведомления не шлются.
func New(store kvstore.Store, notifier notify.Notifier, ttl time.Duration) *Vault {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Vault{
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock подменяет источник времени (для тестов).
func (v *Vault) WithClock(now func() time.Time) *Vault {
	v.now = now
	return v
}

// generateToken возвращает криптографически случайную
// алфавитно-цифровую строку длиной tokenLength.
func generateToken() (string, error) {
	const op = "resetvault.generateToken"

	buf := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenAlphabet)))

	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}

	return string(buf), nil
}

// Issue выпускает токен для пользователя и запускает доставку уведомления.
//
// Уведомление — fire-and-forget: ошибка доставки логируется, но выпущенный
// токен остаётся валидным. Запись в хранилище завершается до старта
// доставки, поэтому медленный почтовый транспорт не держит блокировок
// хранилища.
func (v *Vault) Issue(ctx context.Context, email string, userID uuid.UUID, fullName string) (string, error) {
	const op = "resetvault.Issue"

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	entry := models.ResetEntry{
		Email:     email,
		UserID:    userID,
		CreatedAt: v.now().UTC(),
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := v.store.Set(ctx, keyPrefix+token, raw, v.ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if v.notifier != nil {
		lg := log.From(ctx)
		sendCtx := context.WithoutCancel(ctx)

		go func() {
			sendCtx, cancel := context.WithTimeout(sendCtx, 30*time.Second)
			defer cancel()

			if err := v.notifier.SendResetNotice(sendCtx, email, token, fullName); err != nil {
				lg.Warn("reset_notice_failed",
					slog.String("op", op),
					slog.String("email", redact.Email(email)),
					slog.String("err", err.Error()),
				)
			}
		}()
	}

	return token, nil
}

// Resolve возвращает запись токена, не потребляя его
// (например, для проверки токена перед показом формы).
func (v *Vault) Resolve(ctx context.Context, token string) (*models.ResetEntry, error) {
	const op = "resetvault.Resolve"

	raw, err := v.store.Get(ctx, keyPrefix+token)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return decodeEntry(op, raw)
}

// Consume атомарно читает и удаляет токен — канонический путь потребления.
// Гарантирует не более одного успешного сброса на выпущенный токен
// даже при конкурентных подтверждениях.
func (v *Vault) Consume(ctx context.Context, token string) (*models.ResetEntry, error) {
	const op = "resetvault.Consume"

	raw, err := v.store.GetDel(ctx, keyPrefix+token)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return decodeEntry(op, raw)
}

func decodeEntry(op string, raw []byte) (*models.ResetEntry, error) {
	var entry models.ResetEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Нечитаемая запись равносильна отсутствующей.
		return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
	}

	return &entry, nil
}
