package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/repolens/repolens/domain/task"
)

// Handler executes one task operation.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry maps operations to their handlers.
type Registry struct {
	handlers map[task.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[task.Operation]Handler)}
}

// Register sets the handler for an operation, replacing any previous one.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[operation]
	return h, ok
}

// MissingOperations returns the known operations without a handler. Used at
// startup to catch wiring mistakes before the worker runs.
func (r *Registry) MissingOperations() []task.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []task.Operation
	for _, op := range task.AllOperations() {
		if _, ok := r.handlers[op]; !ok {
			missing = append(missing, op)
		}
	}
	return missing
}

const defaultPollPeriod = 500 * time.Millisecond

// Worker dequeues and executes tasks one at a time. Failed tasks are not
// retried: the progress tree records the failure and the row is removed so
// the queue never wedges.
type Worker struct {
	store      task.TaskStore
	statuses   task.StatusStore
	registry   *Registry
	logger     *slog.Logger
	pollPeriod time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a queue worker.
func NewWorker(store task.TaskStore, statuses task.StatusStore, registry *Registry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:      store,
		statuses:   statuses,
		registry:   registry,
		logger:     logger,
		pollPeriod: defaultPollPeriod,
	}
}

// WithPollPeriod overrides the queue poll period.
func (w *Worker) WithPollPeriod(d time.Duration) *Worker {
	w.pollPeriod = d
	return w
}

// Start sweeps stale progress nodes and begins processing in a goroutine.
// A previous process that died mid-task leaves non-terminal nodes behind;
// they are flipped to failed so clients are not left watching dead work.
func (w *Worker) Start(ctx context.Context) {
	swept, err := w.statuses.FailNonTerminal(ctx, "worker restart")
	if err != nil {
		w.logger.Error("failed to sweep stale statuses", slog.String("error", err.Error()))
	} else if swept > 0 {
		w.logger.Info("swept stale statuses", slog.Int64("count", swept))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	w.logger.Info("queue worker started", slog.Duration("poll_period", w.pollPeriod))
}

// Stop cancels the worker loop and waits for the in-flight task.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessOne(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("task processing failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessOne dequeues and executes a single task. Returns false when the
// queue is empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	t, found, err := w.store.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return true, w.process(ctx, t)
}

func (w *Worker) process(ctx context.Context, t task.Task) error {
	start := time.Now()

	handler, ok := w.registry.Handler(t.Operation())
	if !ok {
		w.logger.Error("no handler for operation",
			slog.String("operation", t.Operation().String()),
			slog.Int64("task_id", t.ID()),
		)
		return nil
	}

	if err := w.execute(ctx, handler, t); err != nil {
		w.logger.Error("task failed",
			slog.String("operation", t.Operation().String()),
			slog.Int64("task_id", t.ID()),
			slog.String("error", err.Error()),
		)
		return nil
	}

	w.logger.Info("task completed",
		slog.String("operation", t.Operation().String()),
		slog.Int64("task_id", t.ID()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// execute runs a handler with panic recovery. A panicking handler must not
// take the worker loop down with it.
func (w *Worker) execute(ctx context.Context, handler Handler, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Execute(ctx, t.Payload())
}
