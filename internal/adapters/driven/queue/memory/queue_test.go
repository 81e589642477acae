package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(4)
	ctx := context.Background()

	first := domain.NewExtractResourceTask("bio-101", "res-1")
	second := domain.NewExtractResourceTask("bio-101", "res-2")
	_ = q.Enqueue(ctx, first)
	_ = q.Enqueue(ctx, second)

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("expected %s first, got %s", first.ID, got.ID)
	}
	if got.Status != domain.TaskStatusProcessing || got.Attempts != 1 {
		t.Errorf("expected processing with 1 attempt, got %s/%d", got.Status, got.Attempts)
	}

	got, _ = q.DequeueWithTimeout(ctx, 1)
	if got.ID != second.ID {
		t.Errorf("expected %s second, got %s", second.ID, got.ID)
	}
}

func TestQueue_FullRejects(t *testing.T) {
	q := NewQueue(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(ctx, domain.NewExtractResourceTask("s", "r")); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	err := q.Enqueue(ctx, domain.NewExtractResourceTask("s", "r"))
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// Delivering a task frees a slot.
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := q.Enqueue(ctx, domain.NewExtractResourceTask("s", "r")); err != nil {
		t.Errorf("expected room after dequeue, got %v", err)
	}
}

func TestQueue_TimeoutOnEmpty(t *testing.T) {
	q := NewQueue(1)

	start := time.Now()
	task, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil || task != nil {
		t.Fatalf("expected nil, nil; got %v, %v", task, err)
	}
	if time.Since(start) < 900*time.Millisecond {
		t.Error("expected DequeueWithTimeout to wait")
	}

	task, err = q.DequeueWithTimeout(context.Background(), 0)
	if err != nil || task != nil {
		t.Errorf("expected immediate nil, nil; got %v, %v", task, err)
	}
}

func TestQueue_DequeueWakesOnEnqueue(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *domain.Task, 1)
	go func() {
		task, _ := q.Dequeue(ctx)
		got <- task
	}()

	task := domain.NewExtractResourceTask("s", "r")
	time.Sleep(20 * time.Millisecond)
	_ = q.Enqueue(ctx, task)

	select {
	case delivered := <-got:
		if delivered == nil || delivered.ID != task.ID {
			t.Errorf("expected %s, got %v", task.ID, delivered)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not wake")
	}
}

func TestQueue_CloseWakesDequeue(t *testing.T) {
	q := NewQueue(1)

	done := make(chan struct{})
	go func() {
		task, err := q.Dequeue(context.Background())
		if task != nil || err != nil {
			t.Errorf("expected nil, nil after close; got %v, %v", task, err)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	_ = q.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not return after Close")
	}

	if err := q.Enqueue(context.Background(), domain.NewExtractResourceTask("s", "r")); !errors.Is(err, domain.ErrQueueFull) {
		t.Errorf("expected closed queue to reject, got %v", err)
	}
}

func TestQueue_AckNack(t *testing.T) {
	q := NewQueue(4)
	ctx := context.Background()

	ok := domain.NewExtractResourceTask("s", "r1")
	bad := domain.NewExtractResourceTask("s", "r2")
	_ = q.Enqueue(ctx, ok)
	_ = q.Enqueue(ctx, bad)
	_, _ = q.DequeueWithTimeout(ctx, 1)
	_, _ = q.DequeueWithTimeout(ctx, 1)

	if err := q.Ack(ctx, ok.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if err := q.Nack(ctx, bad.ID, "lock held"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	got, _ := q.GetTask(ctx, ok.ID)
	if got.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	got, _ = q.GetTask(ctx, bad.ID)
	if got.Status != domain.TaskStatusFailed || got.Error != "lock held" {
		t.Errorf("expected failed single-attempt task, got %s %q", got.Status, got.Error)
	}

	if err := q.Ack(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := q.GetTask(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueue_NackRequeuesWhenAttemptsRemain(t *testing.T) {
	q := NewQueue(4)
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeExtractResource, "s", map[string]string{"resource_id": "r"})
	_ = q.Enqueue(ctx, task)
	_, _ = q.DequeueWithTimeout(ctx, 1)
	_ = q.Nack(ctx, task.ID, "transient")

	again, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil || again == nil {
		t.Fatalf("expected redelivery, got %v, %v", again, err)
	}
	if again.Attempts != 2 {
		t.Errorf("expected attempt 2, got %d", again.Attempts)
	}
}

func TestQueue_StatsAndList(t *testing.T) {
	q := NewQueue(8)
	ctx := context.Background()

	a := domain.NewExtractResourceTask("bio", "r1")
	b := domain.NewExtractResourceTask("chem", "r2")
	_ = q.Enqueue(ctx, a)
	_ = q.Enqueue(ctx, b)
	got, _ := q.DequeueWithTimeout(ctx, 1)
	_ = q.Ack(ctx, got.ID)

	stats, _ := q.Stats(ctx)
	if stats.Capacity != 8 || stats.PendingCount != 1 || stats.CompletedCount != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	chem, _ := q.ListTasks(ctx, driven.TaskFilter{SubjectID: "chem"})
	if len(chem) != 1 || chem[0].ID != b.ID {
		t.Errorf("unexpected filtered tasks %v", chem)
	}
	done, _ := q.ListTasks(ctx, driven.TaskFilter{Status: domain.TaskStatusCompleted})
	if len(done) != 1 || done[0].ID != a.ID {
		t.Errorf("unexpected completed tasks %v", done)
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue(100)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := q.Enqueue(ctx, domain.NewExtractResourceTask("s", "r")); err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if rejected != 50 {
		t.Errorf("expected 50 rejections, got %d", rejected)
	}
}
