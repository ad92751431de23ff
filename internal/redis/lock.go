package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles short-lived distributed locks in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func paymentLockKey(orderID string) string {
	return fmt.Sprintf("lock:payment:%s", orderID)
}

// AcquirePaymentLock attempts to lock payment confirmation for an order.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquirePaymentLock(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, paymentLockKey(orderID), "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleasePaymentLock releases the payment lock for an order.
func (s *LockStore) ReleasePaymentLock(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, paymentLockKey(orderID)).Err()
}
