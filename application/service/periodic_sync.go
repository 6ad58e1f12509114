package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/internal/config"
)

// PeriodicSync re-enqueues indexing for stale repositories on a timer, at
// background priority so user-initiated work always wins.
type PeriodicSync struct {
	repos    repository.RepositoryStore
	queue    *Queue
	logger   *slog.Logger
	interval time.Duration
	enabled  bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPeriodicSync creates a periodic sync scheduler from config.
func NewPeriodicSync(cfg config.PeriodicSyncConfig, repos repository.RepositoryStore, queue *Queue, logger *slog.Logger) *PeriodicSync {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodicSync{
		repos:    repos,
		queue:    queue,
		logger:   logger,
		interval: cfg.Interval(),
		enabled:  cfg.Enabled(),
	}
}

// Start launches the sync loop in a goroutine. No-op when disabled.
func (p *PeriodicSync) Start(ctx context.Context) {
	if !p.enabled {
		p.logger.Info("periodic sync disabled")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()

	p.logger.Info("periodic sync started", slog.Duration("interval", p.interval))
}

// Stop cancels the loop and waits for it to finish.
func (p *PeriodicSync) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	p.logger.Info("periodic sync stopped")
}

func (p *PeriodicSync) run(ctx context.Context) {
	// First round fires immediately so a restart does not postpone
	// overdue repositories by a full interval.
	p.syncRound(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.syncRound(ctx)
		}
	}
}

// syncRound enqueues a sync task for every repository due for indexing.
// A failed round logs and waits for the next tick.
func (p *PeriodicSync) syncRound(ctx context.Context) {
	repos, err := p.repos.Find(ctx, repository.WithIndexDueBefore(time.Now().Add(-p.interval)))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("periodic sync round failed", slog.String("error", err.Error()))
		return
	}

	for _, repo := range repos {
		t := task.NewTask(task.OperationSyncRepository, int(task.PriorityBackground), map[string]any{
			"repository_id": repo.ID(),
		})
		if err := p.queue.Enqueue(ctx, t); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("periodic sync enqueue failed",
				slog.Int64("repository_id", repo.ID()),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(repos) > 0 {
		p.logger.Debug("periodic sync round enqueued", slog.Int("count", len(repos)))
	}
}
