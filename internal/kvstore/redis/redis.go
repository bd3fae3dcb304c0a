// redis — реализация kvstore.Store поверх Redis.
//
// Экспирация ключей делегируется самому Redis (SET ... PX / GETDEL),
// атомарность GetDel обеспечивается командой GETDEL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pribylovaa/credential-service/internal/kvstore"
)

// Store — Redis-клиент, удовлетворяющий kvstore.Store.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Prefix добавляется ко всем ключам; пустой prefix допустим.
func New(ctx context.Context, redisURL, prefix string) (*Store, error) {
	const op = "kvstore.redis.New"

	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{rdb: rdb, prefix: prefix}, nil
}

// NewWithClient оборачивает готовый клиент (используется в тестах с miniredis).
func NewWithClient(rdb *goredis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get возвращает значение ключа или kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "kvstore.redis.Get"

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, kvstore.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

// Set сохраняет значение с TTL, замещая прежнее.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	const op = "kvstore.redis.Set"

	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Delete удаляет ключ безусловно.
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "kvstore.redis.Delete"

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetDel атомарно читает и удаляет ключ (команда GETDEL).
func (s *Store) GetDel(ctx context.Context, key string) ([]byte, error) {
	const op = "kvstore.redis.GetDel"

	val, err := s.rdb.GetDel(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, kvstore.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

// Ping проверяет соединение с Redis.
func (s *Store) Ping(ctx context.Context) error {
	const op = "kvstore.redis.Ping"

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Close закрывает клиент Redis.
func (s *Store) Close() error {
	return s.rdb.Close()
}
