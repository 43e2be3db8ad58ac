package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLocked is returned when a session lock could not be acquired in time.
var ErrLocked = errors.New("upload session is locked by another request")

// Locker serializes appends to one upload session. Lock returns the release
// function once the lock is held.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

const lockRetryInterval = 25 * time.Millisecond

// RedisLocker holds session locks in redis so several service instances
// sharing a temp volume serialize on the same key.
type RedisLocker struct {
	redis *redis.Client
	wait  time.Duration
}

func NewRedisLocker(redisClient *redis.Client, wait time.Duration) *RedisLocker {
	return &RedisLocker{redis: redisClient, wait: wait}
}

// Release only deletes the key while it still holds our token.
const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	key = fmt.Sprintf("upload_lock:%s", key)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redis.SetNX(ctx, key, owner, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return func() {
				l.redis.Eval(context.Background(), releaseScript, []string{key}, owner)
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLocked
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// LocalLocker serializes sessions inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{}), wait: wait}
}

func (l *LocalLocker) tryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Lock ignores ttl: a local lock dies with the process.
func (l *LocalLocker) Lock(ctx context.Context, key string, _ time.Duration) (func(), error) {
	deadline := time.Now().Add(l.wait)

	for !l.tryLock(key) {
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
