package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// TaskQueue carries background extraction tasks from the upload path to the
// worker pool. Implementations: bounded in-memory channel, Redis Streams and
// Postgres (SKIP LOCKED).
type TaskQueue interface {
	// Enqueue adds a task. Bounded implementations return domain.ErrQueueFull
	// instead of blocking when at capacity.
	Enqueue(ctx context.Context, task *domain.Task) error

	// Dequeue retrieves the next ready task, blocking until one is available
	// or ctx is done.
	Dequeue(ctx context.Context) (*domain.Task, error)

	// DequeueWithTimeout waits up to timeout seconds.
	// Returns nil, nil when nothing arrived.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a task completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records a failure. The task is retried if attempts remain,
	// otherwise it is marked failed.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// ListTasks retrieves tasks matching the filter.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// Stats returns queue statistics.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	SubjectID string
	Status    domain.TaskStatus
	Type      domain.TaskType
	Limit     int
	Offset    int
}

// QueueStats contains queue statistics.
type QueueStats struct {
	PendingCount     int64 `json:"pending_count"`
	ProcessingCount  int64 `json:"processing_count"`
	CompletedCount   int64 `json:"completed_count"`
	FailedCount      int64 `json:"failed_count"`
	OldestPendingAge int64 `json:"oldest_pending_age"` // seconds
	Capacity         int64 `json:"capacity,omitempty"`
}
