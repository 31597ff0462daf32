// Package cyclelock provides the cross-instance advisory lock that keeps two
// invocations of the same pipeline cycle from running concurrently. Backed by
// Redis SET NX with a TTL; a nil Redis client yields a no-op lock for
// single-instance and test use.
package cyclelock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serializes cycle invocations across service instances.
type Locker interface {
	// Acquire attempts to take the lock. false means another invocation
	// currently holds it.
	Acquire(ctx context.Context) (bool, error)

	// Release frees the lock if this invocation still holds it. Calling it
	// without a successful Acquire must never free another holder's lock.
	Release(ctx context.Context)
}

// New returns a Redis-backed Locker on key with the given TTL, or a no-op
// Locker when rdb is nil.
func New(rdb *redis.Client, key string, ttl time.Duration, log *zap.Logger) Locker {
	if rdb == nil {
		return noop{}
	}
	return &redisLock{rdb: rdb, key: key, ttl: ttl, log: log}
}

type noop struct{}

func (noop) Acquire(context.Context) (bool, error) { return true, nil }
func (noop) Release(context.Context)               {}

// redisLock tags the lock value with a per-invocation token so Release can
// tell its own lock from one held by another instance.
type redisLock struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	token string
	log   *zap.Logger
}

func (l *redisLock) Acquire(ctx context.Context) (bool, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return false, err
	}
	l.token = hex.EncodeToString(buf)
	return l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release deletes the key only while it still carries this invocation's
// token. The get/delete pair is not atomic, but the worst case — the TTL
// expiring in between — frees a lock that was already gone.
func (l *redisLock) Release(ctx context.Context) {
	if l.token == "" {
		return
	}
	held, err := l.rdb.Get(ctx, l.key).Result()
	if err != nil || held != l.token {
		return
	}
	if err := l.rdb.Del(ctx, l.key).Err(); err != nil {
		l.log.Warn("cycle lock release failed", zap.String("key", l.key), zap.Error(err))
	}
}
