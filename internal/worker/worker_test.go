package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/lectern/internal/adapters/driven/queue/memory"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// mockTaskQueue implements driven.TaskQueue for testing
type mockTaskQueue struct {
	mu           sync.Mutex
	tasks        []*domain.Task
	dequeueDelay time.Duration
	dequeueFn    func() (*domain.Task, error)
	ackFn        func(string) error
	nackFn       func(string, string) error
	pingFn       func() error
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks:        make([]*domain.Task, 0),
		dequeueDelay: 10 * time.Millisecond,
	}
}

func (m *mockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	if m.dequeueFn != nil {
		return m.dequeueFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return nil, nil
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	return task, nil
}

func (m *mockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if m.dequeueDelay > 0 {
		select {
		case <-time.After(m.dequeueDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Dequeue(ctx)
}

func (m *mockTaskQueue) Ack(ctx context.Context, taskID string) error {
	if m.ackFn != nil {
		return m.ackFn(taskID)
	}
	return nil
}

func (m *mockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	if m.nackFn != nil {
		return m.nackFn(taskID, reason)
	}
	return nil
}

func (m *mockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTaskQueue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	return nil, nil
}

func (m *mockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	return &driven.QueueStats{}, nil
}

func (m *mockTaskQueue) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn()
	}
	return nil
}

func (m *mockTaskQueue) Close() error {
	return nil
}

// mockProcessor records processed resource ids.
type mockProcessor struct {
	mu        sync.Mutex
	processed []string
	processFn func(ctx context.Context, resourceID string) error
}

func (m *mockProcessor) Process(ctx context.Context, resourceID string) error {
	m.mu.Lock()
	m.processed = append(m.processed, resourceID)
	m.mu.Unlock()
	if m.processFn != nil {
		return m.processFn(ctx, resourceID)
	}
	return nil
}

func (m *mockProcessor) Processed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.processed))
	copy(out, m.processed)
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewWorker(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:      newMockTaskQueue(),
		Processor:      &mockProcessor{},
		Concurrency:    4,
		DequeueTimeout: 2,
		ErrorBackoff:   50 * time.Millisecond,
	})

	if w.concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 2 {
		t.Errorf("expected dequeue timeout 2, got %d", w.dequeueTimeout)
	}
	if w.errorBackoff != 50*time.Millisecond {
		t.Errorf("expected backoff 50ms, got %v", w.errorBackoff)
	}
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newMockTaskQueue()})

	if w.concurrency != 1 {
		t.Errorf("expected default concurrency 1, got %d", w.concurrency)
	}
	if w.dequeueTimeout != 5 {
		t.Errorf("expected default dequeue timeout 5, got %d", w.dequeueTimeout)
	}
	if w.errorBackoff != time.Second {
		t.Errorf("expected default backoff 1s, got %v", w.errorBackoff)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWorker_StartStop(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:   newMockTaskQueue(),
		Processor:   &mockProcessor{},
		Concurrency: 2,
	})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if !w.Health(ctx).Running {
		t.Error("expected worker to be running")
	}
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()

	if w.Health(ctx).Running {
		t.Error("expected worker to be stopped")
	}
	w.Stop()
}

func TestWorker_WaitBeforeStart(t *testing.T) {
	w := NewWorker(WorkerConfig{TaskQueue: newMockTaskQueue()})

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a worker that never started")
	}
}

func TestWorker_ContextCancelStops(t *testing.T) {
	w := NewWorker(WorkerConfig{
		TaskQueue:   newMockTaskQueue(),
		Processor:   &mockProcessor{},
		Concurrency: 3,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	if w.Health(context.Background()).Running {
		t.Error("expected worker to report stopped")
	}
}

func TestWorker_ProcessesAndAcks(t *testing.T) {
	queue := memory.NewQueue(10)
	proc := &mockProcessor{}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: proc, Concurrency: 2, DequeueTimeout: 1})

	ctx := context.Background()
	first := domain.NewExtractResourceTask("biology", "res-1")
	second := domain.NewExtractResourceTask("biology", "res-2")
	if err := queue.Enqueue(ctx, first); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := queue.Enqueue(ctx, second); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	waitFor(t, func() bool {
		stats, _ := queue.Stats(ctx)
		return stats.CompletedCount == 2
	})

	got := proc.Processed()
	if len(got) != 2 {
		t.Fatalf("expected 2 processed resources, got %v", got)
	}
	seen := map[string]bool{got[0]: true, got[1]: true}
	if !seen["res-1"] || !seen["res-2"] {
		t.Errorf("unexpected processed resources %v", got)
	}
}

// Shutdown mid-task lets the task finish and ack instead of cancelling it.
func TestWorker_InFlightTaskSurvivesCancel(t *testing.T) {
	queue := memory.NewQueue(10)
	started := make(chan struct{})
	release := make(chan struct{})
	var ctxErr atomic.Value
	proc := &mockProcessor{processFn: func(ctx context.Context, resourceID string) error {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	}}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: proc, DequeueTimeout: 1})

	task := domain.NewExtractResourceTask("biology", "res-1")
	if err := queue.Enqueue(context.Background(), task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not picked up")
	}
	cancel()
	close(release)
	w.Wait()

	if err := ctxErr.Load(); err != nil {
		t.Errorf("expected the task context to stay live, got %v", err)
	}
	got, err := queue.GetTask(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed task, got %s", got.Status)
	}
}

func TestWorker_FailureIsTerminal(t *testing.T) {
	queue := memory.NewQueue(10)
	proc := &mockProcessor{
		processFn: func(ctx context.Context, resourceID string) error {
			return errors.New("resource already being processed")
		},
	}
	w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: proc, DequeueTimeout: 1})

	ctx := context.Background()
	task := domain.NewExtractResourceTask("biology", "res-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer w.Stop()

	waitFor(t, func() bool {
		got, err := queue.GetTask(ctx, task.ID)
		return err == nil && got.Status == domain.TaskStatusFailed
	})

	got, _ := queue.GetTask(ctx, task.ID)
	if got.Error != "resource already being processed" {
		t.Errorf("expected failure reason recorded, got %q", got.Error)
	}
	if got.Attempts != 1 {
		t.Errorf("expected a single attempt, got %d", got.Attempts)
	}
	if n := len(proc.Processed()); n != 1 {
		t.Errorf("expected one processing run, got %d", n)
	}
}

func TestWorker_RejectsBadTasks(t *testing.T) {
	tests := []struct {
		name   string
		task   *domain.Task
		reason string
	}{
		{
			name:   "unknown type",
			task:   domain.NewTask("reindex", "biology", map[string]string{"resource_id": "res-1"}),
			reason: "unknown task type: reindex",
		},
		{
			name:   "missing resource id",
			task:   domain.NewTask(domain.TaskTypeExtractResource, "biology", nil),
			reason: "resource_id not found in task payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := newMockTaskQueue()
			proc := &mockProcessor{}

			var mu sync.Mutex
			var nacked []string
			queue.nackFn = func(id, reason string) error {
				mu.Lock()
				defer mu.Unlock()
				nacked = append(nacked, reason)
				return nil
			}
			_ = queue.Enqueue(context.Background(), tt.task)

			w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: proc})
			if err := w.Start(context.Background()); err != nil {
				t.Fatalf("failed to start worker: %v", err)
			}
			waitFor(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return len(nacked) == 1
			})
			w.Stop()

			if nacked[0] != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, nacked[0])
			}
			if len(proc.Processed()) != 0 {
				t.Error("expected processor not to run")
			}
		})
	}
}

func TestWorker_PanicIsNacked(t *testing.T) {
	queue := newMockTaskQueue()
	proc := &mockProcessor{}

	var reason atomic.Value
	queue.nackFn = func(id, r string) error {
		reason.Store(r)
		return nil
	}
	var acked atomic.Int32
	queue.ackFn = func(id string) error {
		acked.Add(1)
		return nil
	}
	_ = queue.Enqueue(context.Background(), domain.NewExtractResourceTask("biology", "res-1"))
	_ = queue.Enqueue(context.Background(), domain.NewExtractResourceTask("biology", "res-2"))

	// The first task panics; the same goroutine must survive to take the second.
	calls := 0
	proc.processFn = func(ctx context.Context, resourceID string) error {
		calls++
		if calls == 1 {
			panic("corrupt page tree")
		}
		return nil
	}

	w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: proc, Concurrency: 1})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	waitFor(t, func() bool { return acked.Load() == 1 })
	w.Stop()

	if got, _ := reason.Load().(string); got != "panic: corrupt page tree" {
		t.Errorf("expected panic reason, got %q", got)
	}
}

func TestWorker_DequeueErrorBacksOff(t *testing.T) {
	queue := newMockTaskQueue()
	var calls atomic.Int32
	queue.dequeueFn = func() (*domain.Task, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}
	queue.dequeueDelay = 0

	w := NewWorker(WorkerConfig{
		TaskQueue:    queue,
		Processor:    &mockProcessor{},
		ErrorBackoff: 100 * time.Millisecond,
	})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	time.Sleep(250 * time.Millisecond)
	w.Stop()

	if n := calls.Load(); n < 2 || n > 4 {
		t.Errorf("expected a few spaced dequeue attempts, got %d", n)
	}
}

func TestWorker_AckErrorIsLogged(t *testing.T) {
	queue := newMockTaskQueue()
	var acks atomic.Int32
	queue.ackFn = func(string) error {
		acks.Add(1)
		return errors.New("ack failed")
	}
	_ = queue.Enqueue(context.Background(), domain.NewExtractResourceTask("biology", "res-1"))

	w := NewWorker(WorkerConfig{TaskQueue: queue, Processor: &mockProcessor{}})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	waitFor(t, func() bool { return acks.Load() == 1 })
	w.Stop()

	if !w.Health(context.Background()).QueueHealth {
		t.Error("expected queue to stay healthy")
	}
}

func TestWorker_Health(t *testing.T) {
	queue := newMockTaskQueue()
	w := NewWorker(WorkerConfig{TaskQueue: queue})
	ctx := context.Background()

	health := w.Health(ctx)
	if health.Running {
		t.Error("expected not running")
	}
	if !health.QueueHealth {
		t.Error("expected queue healthy")
	}

	queue.pingFn = func() error { return errors.New("connection refused") }
	health = w.Health(ctx)
	if health.QueueHealth {
		t.Error("expected queue unhealthy")
	}
	if health.Error != "connection refused" {
		t.Errorf("expected error text, got %q", health.Error)
	}
}
