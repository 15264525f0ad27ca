package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
)

// Runner pool configuration bounds.
const (
	DefaultMaxWorkers   = 4
	DefaultMaxQueueSize = 64

	MaxWorkers   = 100
	MaxQueueSize = 1000
)

// crawlRun is one unit of work for the runner pool
type crawlRun struct {
	jobID   string
	ctx     context.Context
	execute func(ctx context.Context)
}

// Runner executes crawl runs on a bounded worker pool. Submission blocks
// when the queue is full instead of dropping work.
type Runner struct {
	logger     logging.Logger
	runChan    chan *crawlRun
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	running    bool
	maxWorkers int
}

// NewRunner creates a runner sized from the worker configuration
func NewRunner(cfg *config.Config) *Runner {
	maxWorkers, maxQueueSize := validateRunnerConfig(cfg)

	return &Runner{
		logger:     logging.GetGlobalLogger(),
		runChan:    make(chan *crawlRun, maxQueueSize),
		maxWorkers: maxWorkers,
	}
}

func validateRunnerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int) {
	maxWorkers = cfg.Workers.PoolSize
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers > MaxWorkers {
		maxWorkers = MaxWorkers
	}

	maxQueueSize = cfg.Workers.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize > MaxQueueSize {
		maxQueueSize = MaxQueueSize
	}
	return maxWorkers, maxQueueSize
}

// Start launches the worker goroutines
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("runner already running")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	for i := 0; i < r.maxWorkers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("Crawl runner started", map[string]interface{}{
		"max_workers": r.maxWorkers,
	})
	return nil
}

// Stop drains the pool gracefully, bounded by the given context
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil
	}

	r.logger.Info("Stopping crawl runner")
	// Workers exit on the cancelled context; the channel stays open so a
	// racing Submit fails cleanly instead of panicking on a closed channel.
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Crawl runner stopped gracefully")
	case <-ctx.Done():
		r.logger.Warn("Crawl runner shutdown timed out")
	}

	r.running = false
	return nil
}

// Submit enqueues a crawl run, blocking until a queue slot frees up or the
// caller's context ends
func (r *Runner) Submit(ctx context.Context, run *crawlRun) error {
	if !r.IsHealthy() {
		return fmt.Errorf("runner is not running")
	}

	select {
	case r.runChan <- run:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return fmt.Errorf("runner is shutting down")
	}
}

// IsHealthy reports whether the runner is accepting work
func (r *Runner) IsHealthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running && r.ctx.Err() == nil
}

func (r *Runner) worker(workerID int) {
	defer r.wg.Done()

	r.logger.Debug("Crawl worker started", map[string]interface{}{
		"worker_id": workerID,
	})

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("Crawl worker stopping", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		case run, ok := <-r.runChan:
			if !ok {
				return
			}
			r.logger.Debug("Crawl worker picked up job", map[string]interface{}{
				"worker_id": workerID,
				"job_id":    run.jobID,
			})
			run.execute(run.ctx)
		}
	}
}
