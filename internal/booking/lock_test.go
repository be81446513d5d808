package booking

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/medbook-api/pkg/logging"
)

func newRedisLocker(t *testing.T, wait time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, 5*time.Second, wait), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, mr := newRedisLocker(t, 60*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "doc:2030-03-04")
	require.NoError(t, err)
	assert.True(t, mr.Exists("slotlock:doc:2030-03-04"))

	_, err = locker.Lock(ctx, "doc:2030-03-04")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := locker.Lock(ctx, "doc:2030-03-05")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists("slotlock:doc:2030-03-04"))

	again, err := locker.Lock(ctx, "doc:2030-03-04")
	require.NoError(t, err)
	again()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	locker, mr := newRedisLocker(t, 50*time.Millisecond)

	unlock, err := locker.Lock(context.Background(), "doc:day")
	require.NoError(t, err)

	// Simulate the TTL expiring and another replica taking the key.
	require.NoError(t, mr.Set("slotlock:doc:day", "someone-else"))
	unlock()

	got, err := mr.Get("slotlock:doc:day")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLockerLogsFailedRelease(t *testing.T) {
	locker, mr := newRedisLocker(t, 50*time.Millisecond)
	var buf bytes.Buffer
	locker.WithLogger(logging.NewWithWriter(&buf, "debug"))

	unlock, err := locker.Lock(context.Background(), "doc:day")
	require.NoError(t, err)

	mr.Close()
	unlock()
	assert.Contains(t, buf.String(), "slot lock release failed")
	assert.Contains(t, buf.String(), "slotlock:doc:day")
}

func TestRedisLockerReturnsContextError(t *testing.T) {
	locker, _ := newRedisLocker(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Lock(ctx, "doc:day")
	assert.Equal(t, context.Canceled, err)
}

func TestRedisLockerWaitsForRelease(t *testing.T) {
	locker, _ := newRedisLocker(t, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		unlock()
	}()

	second, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	second()
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, ErrLockTimeout)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = locker.Lock(cancelled, "k")
	assert.Error(t, err)

	unlock()
	second, err := locker.Lock(ctx, "k")
	require.NoError(t, err)
	second()

	locker.mu.Lock()
	assert.Empty(t, locker.slots)
	locker.mu.Unlock()
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "abc:2030-03-04", SlotKey("abc", time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)))
}
