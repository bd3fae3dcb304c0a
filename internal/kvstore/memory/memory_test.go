package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/credential-service/internal/kvstore"
)

func TestSetGet_RoundTrip(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

func TestGet_MissingKey_NotFound(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestSet_OverwritesValueAndTTL(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, s.Set(ctx, "k", []byte("new"), time.Hour))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), got)
}

func TestGet_ExpiredKey_NotFound(t *testing.T) {
	t.Parallel()

	base := time.Now()
	cur := base
	s := New().WithClock(func() time.Time { return cur })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Minute))

	// За секунду до истечения ключ ещё жив.
	cur = base.Add(10*time.Minute - time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	// Ровно на границе TTL ключ считается истёкшим.
	cur = base.Add(10 * time.Minute)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestDelete_RemovesKey(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)

	// Удаление отсутствующего ключа не ошибка.
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestGetDel_ReturnsValueOnce(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := s.GetDel(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	_, err = s.GetDel(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestGetDel_ExpiredKey_NotFound(t *testing.T) {
	t.Parallel()

	base := time.Now()
	cur := base
	s := New().WithClock(func() time.Time { return cur })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	cur = base.Add(2 * time.Minute)
	_, err := s.GetDel(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

// TestGetDel_Concurrent_SingleWinner — из N конкурентных GetDel одного
// ключа успешен ровно один.
func TestGetDel_Concurrent_SingleWinner(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	const workers = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.GetDel(ctx, "k"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
}

// TestGet_ReturnsCopy — мутация возвращённого значения не портит хранилище.
func TestGet_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("abc"), time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'X'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again)
}

func TestPingAndClose_NoOp(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}
