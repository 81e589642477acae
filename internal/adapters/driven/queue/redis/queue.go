package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

const (
	taskStream    = "lectern:tasks"
	taskGroup     = "lectern:extractors"
	delayedTasks  = "lectern:tasks:delayed"
	messageIDs    = "lectern:tasks:messages"
	taskKeyPrefix = "lectern:task:"

	consumerPrefix = "worker-"

	// taskTTL bounds how long finished task records stay readable.
	taskTTL = 24 * time.Hour

	// claimTimeout is how long a delivered task may sit unacknowledged
	// before another consumer takes it over.
	claimTimeout = 15 * time.Minute
)

// Verify interface compliance
var _ driven.TaskQueue = (*Queue)(nil)

// Queue implements TaskQueue on a Redis stream with one consumer group.
// Task records live in their own keys as JSON; the stream only carries ids.
// Tasks scheduled in the future wait in a sorted set until due.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a new Redis-backed task queue. consumerName should be
// unique per process; empty picks one from the clock.
func NewQueue(ctx context.Context, client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	err := client.XGroupCreateMkStream(ctx, taskStream, taskGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Queue{client: client, consumerName: consumerName}, nil
}

// Enqueue stores the task and publishes it, or parks it until ScheduledFor.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return fmt.Errorf("task is required: %w", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, taskTTL)
	if task.ScheduledFor.After(time.Now()) {
		pipe.ZAdd(ctx, delayedTasks, redis.Z{Score: float64(task.ScheduledFor.Unix()), Member: task.ID})
	} else {
		pipe.XAdd(ctx, streamEntry(task))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks until a task is delivered or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	return q.read(ctx, 0)
}

// DequeueWithTimeout waits up to timeout seconds; zero does not wait.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	block := time.Duration(timeout) * time.Second
	if timeout <= 0 {
		block = -1
	}
	return q.read(ctx, block)
}

func (q *Queue) read(ctx context.Context, block time.Duration) (*domain.Task, error) {
	// Best effort: a failure here only delays work.
	_ = q.promoteDue(ctx)

	if task, err := q.reclaim(ctx); err == nil && task != nil {
		return task, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumerName,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	return q.start(ctx, streams[0].Messages[0])
}

// start marks the delivered task processing and remembers its message id.
// Messages whose task record is gone are dropped.
func (q *Queue) start(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	taskID, _ := msg.Values["task_id"].(string)
	task, err := q.GetTask(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) || taskID == "" {
		q.client.XAck(ctx, taskStream, taskGroup, msg.ID)
		q.client.XDel(ctx, taskStream, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task.MarkProcessing()
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, taskTTL)
	pipe.HSet(ctx, messageIDs, task.ID, msg.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record delivery: %w", err)
	}
	return task, nil
}

// Ack marks the task completed and removes its stream entry.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.MarkCompleted()
	return q.finish(ctx, task, nil)
}

// Nack records the failure. With attempts left the task is parked in the
// delayed set until its backoff passes; otherwise it is marked failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	if task.CanRetry() {
		task.Retry(reason)
		return q.finish(ctx, task, &redis.Z{Score: float64(task.ScheduledFor.Unix()), Member: task.ID})
	}
	task.MarkFailed(reason)
	return q.finish(ctx, task, nil)
}

func (q *Queue) finish(ctx context.Context, task *domain.Task, retry *redis.Z) error {
	msgID, err := q.client.HGet(ctx, messageIDs, task.ID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get message id: %w", err)
	}
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.HDel(ctx, messageIDs, task.ID)
	pipe.Set(ctx, taskKeyPrefix+task.ID, data, taskTTL)
	if retry != nil {
		pipe.ZAdd(ctx, delayedTasks, *retry)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// ListTasks scans every task record; intended for admin use only.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := q.eachTask(ctx, func(task *domain.Task) {
		if filter.SubjectID != "" && task.SubjectID != filter.SubjectID {
			return
		}
		if filter.Status != "" && task.Status != filter.Status {
			return
		}
		if filter.Type != "" && task.Type != filter.Type {
			return
		}
		tasks = append(tasks, task)
	})
	if err != nil {
		return nil, err
	}

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

// Stats counts task records by status.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}
	var oldest time.Time

	err := q.eachTask(ctx, func(task *domain.Task) {
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
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestPendingAge = int64(time.Since(oldest).Seconds())
	}
	return stats, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the client is shared with the lock.
func (q *Queue) Close() error {
	return nil
}

func (q *Queue) eachTask(ctx context.Context, fn func(*domain.Task)) error {
	iter := q.client.Scan(ctx, 0, taskKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := q.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var task domain.Task
		if json.Unmarshal(data, &task) != nil {
			continue
		}
		fn(&task)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan tasks: %w", err)
	}
	return nil
}

// promoteDue moves delayed tasks whose time has come onto the stream.
func (q *Queue) promoteDue(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, delayedTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	for _, taskID := range due {
		// Only the caller that removes the member publishes it.
		removed, err := q.client.ZRem(ctx, delayedTasks, taskID).Result()
		if err != nil || removed == 0 {
			continue
		}
		task, err := q.GetTask(ctx, taskID)
		if err != nil {
			continue
		}
		q.client.XAdd(ctx, streamEntry(task))
	}
	return nil
}

// reclaim takes over one message another consumer left unacknowledged for
// longer than claimTimeout.
func (q *Queue) reclaim(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: taskStream,
		Group:  taskGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumerName,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}
		task, err := q.start(ctx, claimed[0])
		if err == nil && task != nil {
			return task, nil
		}
	}
	return nil, nil
}

func streamEntry(task *domain.Task) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: taskStream,
		Values: map[string]any{
			"task_id":    task.ID,
			"type":       string(task.Type),
			"subject_id": task.SubjectID,
		},
	}
}
