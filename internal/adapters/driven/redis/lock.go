package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "lectern:lock:"

// Lock implements DistributedLock with SET NX PX. The value is the owner id,
// so an instance can only release or extend locks it took itself.
type Lock struct {
	client  *redis.Client
	ownerID string
}

// NewLock creates a new Redis-backed distributed lock with a fresh owner id.
func NewLock(client *redis.Client) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client:  client,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire takes the lock if nobody holds it. Returns false when it is held.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+name, l.ownerID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return ok, nil
}

// ownedScript runs a command against KEYS[1] only when its value is ARGV[1].
// ARGV[2] selects the command; ARGV[3] is the TTL in milliseconds for pexpire.
var ownedScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) ~= ARGV[1] then
		return 0
	end
	if ARGV[2] == "del" then
		return redis.call("del", KEYS[1])
	end
	return redis.call("pexpire", KEYS[1], ARGV[3])
`)

// Release drops the lock if this instance holds it. Releasing a lock that
// expired or belongs to someone else is not an error.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := ownedScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID, "del", 0).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend resets the TTL of a lock this instance holds.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	n, err := ownedScript.Run(ctx, l.client, []string{lockPrefix + name}, l.ownerID, "pexpire", ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lock values.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
