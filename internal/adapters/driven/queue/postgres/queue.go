package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Queue implements TaskQueue
var _ driven.TaskQueue = (*Queue)(nil)

// DefaultPollInterval is how often Dequeue looks for new rows.
const DefaultPollInterval = 500 * time.Millisecond

const taskColumns = `
	id, type, subject_id, payload, status, priority,
	attempts, max_attempts, error, created_at, updated_at,
	started_at, completed_at, scheduled_for
`

// Queue implements TaskQueue on the tasks table with FOR UPDATE SKIP LOCKED,
// so any number of workers can poll it. Used when Redis is not configured.
type Queue struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewQueue creates a new PostgreSQL-backed task queue.
// The tasks table is created by postgres.DB.InitSchema.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, pollInterval: DefaultPollInterval}
}

// Enqueue adds a task to the queue
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO tasks (
			id, type, subject_id, payload, status, priority,
			attempts, max_attempts, error, created_at, updated_at, scheduled_for
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = q.db.ExecContext(ctx, query,
		task.ID,
		task.Type,
		task.SubjectID,
		payload,
		task.Status,
		task.Priority,
		task.Attempts,
		task.MaxAttempts,
		task.Error,
		task.CreatedAt,
		task.UpdatedAt,
		task.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Dequeue polls until a task is claimed or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		task, err := q.claim(ctx)
		if err != nil || task != nil {
			return task, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DequeueWithTimeout polls for up to timeout seconds.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	task, err := q.claim(ctx)
	if err != nil || task != nil || timeout <= 0 {
		return task, err
	}

	deadline := time.NewTimer(time.Duration(timeout) * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, nil
		case <-ticker.C:
			task, err := q.claim(ctx)
			if err != nil || task != nil {
				return task, err
			}
		}
	}
}

// claim atomically moves the next ready task to processing. Returns nil, nil
// when no task is ready.
func (q *Queue) claim(ctx context.Context) (*domain.Task, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1
		  AND scheduled_for <= NOW()
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	task, err := scanTask(tx.QueryRowContext(ctx, selectQuery, domain.TaskStatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}

	task.MarkProcessing()
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, started_at = $2, updated_at = $3, attempts = $4
		WHERE id = $5
	`,
		task.Status,
		task.StartedAt,
		task.UpdatedAt,
		task.Attempts,
		task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return task, nil
}

// Ack marks a task as completed
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	now := time.Now()
	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, completed_at = $2, updated_at = $2, error = ''
		WHERE id = $3
	`,
		domain.TaskStatusCompleted,
		now,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(result)
}

// Nack records the failure. Tasks with attempts left go back to pending with
// exponential backoff; the rest are marked failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	if task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}

	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, error = $2, updated_at = $3, scheduled_for = $4, completed_at = $5
		WHERE id = $6
	`,
		task.Status,
		task.Error,
		task.UpdatedAt,
		task.ScheduledFor,
		task.CompletedAt,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(result)
}

// GetTask retrieves a task by ID
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(q.db.QueryRowContext(ctx, query, taskID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// ListTasks retrieves tasks matching the filter, newest first
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SubjectID != "" {
		query += " AND subject_id = " + arg(filter.SubjectID)
	}
	if filter.Status != "" {
		query += " AND status = " + arg(filter.Status)
	}
	if filter.Type != "" {
		query += " AND type = " + arg(filter.Type)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Stats returns queue statistics
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}

		switch domain.TaskStatus(status) {
		case domain.TaskStatusPending:
			stats.PendingCount = count
		case domain.TaskStatusProcessing:
			stats.ProcessingCount = count
		case domain.TaskStatusCompleted:
			stats.CompletedCount = count
		case domain.TaskStatusFailed:
			stats.FailedCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	var age sql.NullInt64
	err = q.db.QueryRowContext(ctx, `
		SELECT EXTRACT(EPOCH FROM (NOW() - MIN(created_at)))::bigint
		FROM tasks
		WHERE status = $1
	`, domain.TaskStatusPending).Scan(&age)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query oldest age: %w", err)
	}
	if age.Valid {
		stats.OldestPendingAge = age.Int64
	}

	return stats, nil
}

// Ping checks database connectivity
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op; the connection pool is owned by the caller.
func (q *Queue) Close() error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var payload []byte
	var errText sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Type,
		&task.SubjectID,
		&payload,
		&task.Status,
		&task.Priority,
		&task.Attempts,
		&task.MaxAttempts,
		&errText,
		&task.CreatedAt,
		&task.UpdatedAt,
		&startedAt,
		&completedAt,
		&task.ScheduledFor,
	)
	if err != nil {
		return nil, err
	}

	task.Error = errText.String
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
