package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*TableLock)(nil)

// TableLock implements DistributedLock with rows in the locks table.
// Each row carries an expiry, so a crashed worker's lock lapses after its
// TTL. Used when Redis is not configured.
type TableLock struct {
	db     *DB
	holder string
}

// NewTableLock creates a lock adapter. Every TableLock has its own holder id;
// Release and Extend only touch rows this instance acquired.
func NewTableLock(db *DB) *TableLock {
	return &TableLock{db: db, holder: uuid.NewString()}
}

func lockKey(name string) string {
	return "lectern:lock:" + name
}

// Acquire takes the named lock if it is free or expired.
func (l *TableLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO locks (name, holder, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE
			SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
			WHERE locks.expires_at < NOW()
	`

	result, err := l.db.ExecContext(ctx, query, lockKey(name), l.holder, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Release deletes the lock if this instance holds it. Releasing a lock that
// is not held is not an error.
func (l *TableLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx,
		`DELETE FROM locks WHERE name = $1 AND holder = $2`,
		lockKey(name), l.holder,
	)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Extend pushes the expiry of a lock this instance holds.
func (l *TableLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE locks SET expires_at = NOW() + $3 * INTERVAL '1 millisecond'
		WHERE name = $1 AND holder = $2 AND expires_at >= NOW()
	`, lockKey(name), l.holder, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("lock %s not held", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *TableLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
