package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Ensure Queue implements TaskQueue
var _ driven.TaskQueue = (*Queue)(nil)

// DefaultCapacity is the number of undelivered tasks held before Enqueue
// starts rejecting.
const DefaultCapacity = 256

// ErrClosed is returned by Ping after Close.
var ErrClosed = errors.New("task queue closed")

// Queue is a bounded in-process TaskQueue backed by a buffered channel.
// Enqueue never blocks: a full queue returns domain.ErrQueueFull.
// Tasks are lost on restart; use the Redis or Postgres queue when that matters.
type Queue struct {
	ready    chan string
	capacity int

	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	closed bool
	done   chan struct{}
}

// NewQueue creates a queue holding at most capacity undelivered tasks.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		ready:    make(chan string, capacity),
		capacity: capacity,
		tasks:    make(map[string]*domain.Task),
		done:     make(chan struct{}),
	}
}

// Enqueue adds a task, or returns domain.ErrQueueFull without blocking.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return domain.ErrQueueFull
	}

	select {
	case q.ready <- task.ID:
		stored := *task
		q.tasks[task.ID] = &stored
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until a task is available, ctx is done or the queue closes.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.done:
			return nil, nil
		case id := <-q.ready:
			if task := q.start(id); task != nil {
				return task, nil
			}
		}
	}
}

// DequeueWithTimeout waits up to timeout seconds. Returns nil, nil on timeout.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if timeout <= 0 {
		select {
		case id := <-q.ready:
			return q.start(id), nil
		default:
			return nil, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	task, err := q.Dequeue(ctx)
	if err == context.DeadlineExceeded {
		return nil, nil
	}
	return task, err
}

// start marks a delivered task processing and returns a copy of it.
func (q *Queue) start(id string) *domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil
	}
	task.MarkProcessing()
	out := *task
	return &out
}

// Ack marks a task completed.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	task.MarkCompleted()
	return nil
}

// Nack marks a task failed, or puts it back on the queue when attempts
// remain. Retries are delivered immediately; ScheduledFor is not honoured.
// A retry that finds the queue full fails the task.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	if !task.CanRetry() || q.closed {
		task.MarkFailed(reason)
		return nil
	}

	select {
	case q.ready <- taskID:
		task.Retry(reason)
	default:
		task.MarkFailed(reason)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *task
	return &out, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	q.mu.RLock()
	var tasks []*domain.Task
	for _, task := range q.tasks {
		if filter.SubjectID != "" && task.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		out := *task
		tasks = append(tasks, &out)
	}
	q.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(tasks) {
			return []*domain.Task{}, nil
		}
		tasks = tasks[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(tasks) {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

// Stats returns queue statistics including capacity.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := &driven.QueueStats{Capacity: int64(q.capacity)}
	var oldest time.Time
	for _, task := range q.tasks {
		switch task.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
			if oldest.IsZero() || task.CreatedAt.Before(oldest) {
				oldest = task.CreatedAt
			}
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	if !oldest.IsZero() {
		stats.OldestPendingAge = int64(time.Since(oldest).Seconds())
	}
	return stats, nil
}

// Ping fails only after Close.
func (q *Queue) Ping(ctx context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	return nil
}

// Close stops accepting tasks and wakes blocked Dequeue calls.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
