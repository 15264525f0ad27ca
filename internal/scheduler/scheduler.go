// Package scheduler wires up the cron job that periodically starts a crawl
// for every active source.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/internal/orchestrator"
)

// Scheduler wraps robfig/cron and triggers crawl sweeps on a schedule.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *orchestrator.Orchestrator
	spec         string
	enabled      bool
	logger       logging.Logger
}

// New creates a scheduler from configuration. When the scheduler is disabled
// Start and Stop are no-ops.
func New(o *orchestrator.Orchestrator, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: o,
		spec:         cfg.Scheduler.Schedule,
		enabled:      cfg.Scheduler.Enabled,
		logger:       logging.GetGlobalLogger(),
	}
}

// Start registers the sweep job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("Scheduler disabled, crawls run on demand only")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

// Stop halts the cron loop. Jobs already submitted keep running on the
// orchestrator's pool.
func (s *Scheduler) Stop() {
	if !s.enabled {
		return
	}
	s.cron.Stop()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.logger.Info("Scheduled crawl sweep started")

	jobs, total, err := s.orchestrator.StartAllActive(ctx)
	if err != nil {
		s.logger.Error("Crawl sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.logger.Info("Scheduled crawl sweep dispatched", map[string]interface{}{
		"sources": total,
		"jobs":    len(jobs),
	})
}
