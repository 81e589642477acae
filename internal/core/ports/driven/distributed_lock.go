package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across worker instances. The pipeline
// holds one lock per resource while it processes an extraction task, so a
// redelivered task cannot run twice concurrently.
type DistributedLock interface {
	// Acquire tries to take a named lock for ttl.
	// Returns false without error when another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops a named lock. Safe to call when the lock is not held.
	Release(ctx context.Context, name string) error

	// Extend pushes out the TTL of a held lock.
	// Postgres advisory locks have no TTL and treat this as a no-op.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
