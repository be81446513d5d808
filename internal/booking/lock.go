package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harentsoaR/medbook-api/pkg/logging"
)

// Locker serializes bookings that touch the same doctor and day.
type Locker interface {
	// Lock blocks until key is held, the wait budget runs out (ErrLockTimeout)
	// or ctx is done. The returned func releases the lock.
	Lock(ctx context.Context, key string) (func(), error)
}

// SlotKey is the lock key for a doctor's day.
func SlotKey(doctorID string, day time.Time) string {
	return doctorID + ":" + day.Format(dateLayout)
}

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker holds locks as SET NX PX keys so every API replica shares them.
type RedisLocker struct {
	client  *redis.Client
	ttl     time.Duration
	wait    time.Duration
	retry   time.Duration
	prefix  string
	release *redis.Script
	logger  *logging.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		wait:    wait,
		retry:   25 * time.Millisecond,
		prefix:  "slotlock:",
		release: redis.NewScript(releaseScript),
		logger:  logging.Default(),
	}
}

// WithLogger sets the logger used to report failed releases.
func (l *RedisLocker) WithLogger(logger *logging.Logger) *RedisLocker {
	if logger != nil {
		l.logger = logger
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("booking: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// The request context may already be cancelled; release regardless.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.release.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("slot lock release failed, key expires with its ttl", "key", key, "error", err)
		}
	}, nil
}

// LocalLocker is an in-process Locker for single-replica deployments.
type LocalLocker struct {
	mu    sync.Mutex
	wait  time.Duration
	slots map[string]*localSlot
}

type localSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[string]*localSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &localSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.drop(key, slot)
		}, nil
	case <-timer.C:
		l.drop(key, slot)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		l.drop(key, slot)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) drop(key string, slot *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
