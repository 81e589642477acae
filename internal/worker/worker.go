package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// Processor runs ingestion for one resource.
// services.IngestionPipeline satisfies it.
type Processor interface {
	Process(ctx context.Context, resourceID string) error
}

// Worker drains the task queue with a fixed pool of goroutines.
type Worker struct {
	taskQueue driven.TaskQueue
	processor Processor
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds
	errorBackoff   time.Duration

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Processor      Processor
	Logger         *slog.Logger
	Concurrency    int           // Number of concurrent task processors
	DequeueTimeout int           // Seconds to wait for a task before checking again
	ErrorBackoff   time.Duration // Pause after a failed dequeue
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	backoff := cfg.ErrorBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		processor:      cfg.Processor,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		errorBackoff:   backoff,
		doneCh:         closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Start launches the worker goroutines and returns immediately.
// They run until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	doneCh := w.doneCh
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(doneCh)
	}()

	return nil
}

// Stop signals the goroutines and waits for in-flight tasks to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	w.mu.RLock()
	doneCh := w.doneCh
	w.mu.RUnlock()
	<-doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			w.sleep(ctx, w.errorBackoff)
			continue
		}

		if task == nil {
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-t.C:
	}
}

// processTask runs one task and acks or nacks it. A started task always
// runs to its terminal outcome, so shutdown does not cancel it; Stop waits.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "resource_id", task.ResourceID())
	logger.Info("processing task")

	startTime := time.Now()
	err := w.run(ctx, task)
	duration := time.Since(startTime)

	if err != nil {
		logger.Error("task failed",
			"duration", duration,
			"attempts", task.Attempts,
			"error", err,
		)

		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", duration)

	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// run dispatches on task type. A panic inside the processor fails the task
// instead of killing the pool goroutine.
func (w *Worker) run(ctx context.Context, task *domain.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch task.Type {
	case domain.TaskTypeExtractResource:
		resourceID := task.ResourceID()
		if resourceID == "" {
			return fmt.Errorf("resource_id not found in task payload")
		}
		return w.processor.Process(ctx, resourceID)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// Health reports whether the pool is running and the queue reachable.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
