// memory — in-memory реализация kvstore.Store.
//
// Экспирация пассивная: метка времени проверяется при чтении,
// просроченные записи удаляются лениво. Этого достаточно по контракту
// хранилища; активный свипер не требуется. Реализация потокобезопасна,
// GetDel выполняется под одним захватом мьютекса.
//
// Используется в unit-тестах и в локальном запуске без Redis.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/credential-service/internal/kvstore"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store — потокобезопасное in-memory KV-хранилище с TTL.
type Store struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// WithClock подменяет источник времени (для тестов TTL-границ).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// alive возвращает запись, если она существует и не истекла.
// Вызывается под мьютексом; просроченная запись удаляется на месте.
func (s *Store) alive(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}

	if !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return entry{}, false
	}

	return e, true
}

// Get возвращает значение ключа или kvstore.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.alive(key)
	if !ok {
		return nil, kvstore.ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)

	return out, nil
}

// Set сохраняет значение с TTL, замещая прежнее.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)

	s.data[key] = entry{
		value:     v,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

// Delete удаляет ключ безусловно.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

// GetDel атомарно читает и удаляет ключ.
func (s *Store) GetDel(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.alive(key)
	if !ok {
		return nil, kvstore.ErrNotFound
	}

	delete(s.data, key)

	return e.value, nil
}

// Ping всегда успешен.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close — no-op.
func (s *Store) Close() error { return nil }
