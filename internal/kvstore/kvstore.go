// kvstore задаёт контракт разделяемого KV-хранилища с TTL на ключ.
//
// На этом контракте построены rate-limiter, reset-vault и blacklist
// refresh-токенов: все они — time-windowed состояние, которое должно
// детерминированно истекать без фонового свипера. Хранилище внедряется
// явно (никакого process-wide состояния), поэтому в тестах оно
// подменяется in-memory реализацией.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound — ключ отсутствует либо его TTL истёк.
var ErrNotFound = errors.New("key not found")

// Store — минимальный контракт KV-хранилища с TTL.
//
// Get/Set/Delete — обычные операции; GetDel читает и удаляет ключ
// одним неделимым шагом. Именно GetDel используется для одноразовых
// токенов: из двух конкурентных потребителей выигрывает ровно один.
type Store interface {
	// Get возвращает значение ключа или ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение, замещая прежнее; значение видимо ttl с момента вызова.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete удаляет ключ безусловно; отсутствие ключа — не ошибка.
	Delete(ctx context.Context, key string) error
	// GetDel атомарно читает и удаляет ключ; ErrNotFound, если ключа нет.
	GetDel(ctx context.Context, key string) ([]byte, error)
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
	// Close освобождает ресурсы клиента.
	Close() error
}
