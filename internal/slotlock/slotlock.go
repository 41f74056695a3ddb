// Package slotlock provides a short-lived per-slot lock that narrows
// the window between the booking conflict pre-check and the insert.
// The primary store's uniqueness index remains the real guard; the lock
// only reduces how often two racing requests reach it.
package slotlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker acquires a lock for a doctor+slot key. Release is always safe
// to call. ok=false means somebody else holds the lock right now.
type Locker interface {
	Acquire(ctx context.Context, doctorID, slotKey string) (release func(), ok bool, err error)
}

// RedisLocker implements Locker with SET NX + TTL.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a RedisLocker; ttl guards against a crashed holder.
func New(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, doctorID, slotKey string) (func(), bool, error) {
	key := fmt.Sprintf("slotlock:%s:%s", doctorID, slotKey)
	ok, err := l.client.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !ok {
		return func() {}, false, nil
	}
	release := func() {
		// Best effort; the TTL cleans up after a failed delete.
		_ = l.client.Del(context.Background(), key).Err()
	}
	return release, true, nil
}

// Noop is the locker used when Redis is not configured.
type Noop struct{}

func (Noop) Acquire(ctx context.Context, doctorID, slotKey string) (func(), bool, error) {
	return func() {}, true, nil
}
