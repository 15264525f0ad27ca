// Package orchestrator coordinates crawl jobs: scheduling, execution on the
// runner pool, progress tracking, cancellation, and persistence of results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/locations"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/internal/providers"
	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
	"uppdragsradarn-crawler/pkg/utils"
)

// Progress is persisted after this many processed assignments.
const progressFlushInterval = 10

// ErrSourceAlreadyRunning is returned when a crawl is requested for a source
// that already has an active job
var ErrSourceAlreadyRunning = errors.New("source already has a running crawl job")

// ErrJobTerminal is returned when cancelling a job that already finished
var ErrJobTerminal = errors.New("crawl job already finished")

// jobHandle tracks one in-flight crawl job
type jobHandle struct {
	sourceID uuid.UUID
	cancel   context.CancelFunc
}

// Orchestrator owns the crawl job lifecycle
type Orchestrator struct {
	stores     *storage.Stores
	registry   *providers.Registry
	normalizer *locations.Normalizer
	runner     *Runner
	cfg        *config.Config
	logger     logging.Logger

	handles sync.Map // job ID -> *jobHandle
}

// New creates an orchestrator
func New(stores *storage.Stores, registry *providers.Registry, normalizer *locations.Normalizer, runner *Runner, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		stores:     stores,
		registry:   registry,
		normalizer: normalizer,
		runner:     runner,
		cfg:        cfg,
		logger:     logging.GetGlobalLogger(),
	}
}

// Start launches the runner pool and reconciles jobs orphaned by an earlier
// shutdown
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.runner.Start(ctx); err != nil {
		return err
	}
	return o.reconcileOrphanedJobs(ctx)
}

// Stop cancels all in-flight jobs and drains the runner
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.handles.Range(func(_, value interface{}) bool {
		value.(*jobHandle).cancel()
		return true
	})
	return o.runner.Stop(ctx)
}

// reconcileOrphanedJobs fails RUNNING jobs left behind by a previous process.
// Their goroutines are gone, so the records can never terminate on their own.
func (o *Orchestrator) reconcileOrphanedJobs(ctx context.Context) error {
	orphans, err := o.stores.CrawlJobs.FindByStatus(ctx, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to query running jobs at startup: %w", err)
	}

	for _, job := range orphans {
		now := time.Now()
		job.Status = models.JobStatusFailed
		job.EndTime = &now
		job.ErrorMessage = "orphaned by service restart"
		if err := o.stores.CrawlJobs.Update(ctx, job); err != nil {
			o.logger.Error("Failed to reconcile orphaned job", map[string]interface{}{
				"job_id": job.ID,
				"error":  err.Error(),
			})
			continue
		}
		o.logger.Warn("Marked orphaned crawl job as failed", map[string]interface{}{
			"job_id": job.ID,
			"source": job.SourceName,
		})
	}
	return nil
}

// StartCrawl creates a crawl job for a source and submits it for execution.
// One job per source runs at a time.
func (o *Orchestrator) StartCrawl(ctx context.Context, sourceID uuid.UUID) (*models.CrawlJob, error) {
	source, err := o.stores.Sources.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !source.Active {
		return nil, fmt.Errorf("source %q is not active", source.Name)
	}

	if o.sourceRunning(sourceID) {
		return nil, ErrSourceAlreadyRunning
	}

	job := &models.CrawlJob{
		ID:         utils.GenerateJobID(),
		SourceID:   source.ID,
		SourceName: source.Name,
		Status:     models.JobStatusScheduled,
		StartTime:  time.Now(),
	}
	if err := o.stores.CrawlJobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create crawl job: %w", err)
	}

	// A source nobody can crawl fails immediately, nothing is submitted.
	provider, err := o.registry.ProviderFor(source)
	if err != nil {
		o.finish(job, models.JobStatusFailed, err.Error())
		return job, nil
	}

	runCtx, cancel := context.WithTimeout(context.Background(), o.cfg.Workers.JobTimeout)
	o.handles.Store(job.ID, &jobHandle{sourceID: source.ID, cancel: cancel})

	run := &crawlRun{
		jobID: job.ID,
		ctx:   runCtx,
		execute: func(execCtx context.Context) {
			defer cancel()
			defer o.handles.Delete(job.ID)
			o.runCrawl(execCtx, job, source, provider)
		},
	}

	if err := o.runner.Submit(ctx, run); err != nil {
		cancel()
		o.handles.Delete(job.ID)
		now := time.Now()
		job.Status = models.JobStatusFailed
		job.EndTime = &now
		job.ErrorMessage = fmt.Sprintf("failed to enqueue: %v", err)
		if uerr := o.stores.CrawlJobs.Update(ctx, job); uerr != nil {
			o.logger.Error("Failed to persist enqueue failure", map[string]interface{}{
				"job_id": job.ID,
				"error":  uerr.Error(),
			})
		}
		return nil, err
	}

	o.logger.Info("Crawl job scheduled", map[string]interface{}{
		"job_id": job.ID,
		"source": source.Name,
	})
	return job, nil
}

// StartAllActive starts a crawl job for every active source. Sources that
// fail to start (already running, no provider) are skipped with a log entry.
// The second return value is the number of active sources considered.
func (o *Orchestrator) StartAllActive(ctx context.Context) ([]*models.CrawlJob, int, error) {
	sources, err := o.stores.Sources.FindActive(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list active sources: %w", err)
	}

	var jobs []*models.CrawlJob
	for _, source := range sources {
		job, err := o.StartCrawl(ctx, source.ID)
		if err != nil {
			o.logger.Warn("Skipping source in sweep", map[string]interface{}{
				"source": source.Name,
				"error":  err.Error(),
			})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, len(sources), nil
}

// CancelJob requests cooperative cancellation of a running job
func (o *Orchestrator) CancelJob(ctx context.Context, jobID string) (*models.CrawlJob, error) {
	job, err := o.stores.CrawlJobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, ErrJobTerminal
	}

	if value, ok := o.handles.Load(jobID); ok {
		value.(*jobHandle).cancel()
		o.logger.Info("Cancellation requested", map[string]interface{}{
			"job_id": jobID,
		})
		return job, nil
	}

	// No live handle: the job never reached a worker. Terminate the record
	// directly.
	now := time.Now()
	job.Status = models.JobStatusCancelled
	job.EndTime = &now
	if err := o.stores.CrawlJobs.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns a crawl job by ID
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (*models.CrawlJob, error) {
	return o.stores.CrawlJobs.FindByID(ctx, jobID)
}

// RecentJobs returns the most recently started jobs
func (o *Orchestrator) RecentJobs(ctx context.Context, limit int) ([]*models.CrawlJob, error) {
	return o.stores.CrawlJobs.FindRecent(ctx, limit)
}

// JobsBySource returns the most recent jobs for one source
func (o *Orchestrator) JobsBySource(ctx context.Context, sourceID uuid.UUID, limit int) ([]*models.CrawlJob, error) {
	return o.stores.CrawlJobs.FindBySource(ctx, sourceID, limit)
}

// IsHealthy reports whether the runner pool is accepting work
func (o *Orchestrator) IsHealthy() bool {
	return o.runner.IsHealthy()
}

func (o *Orchestrator) sourceRunning(sourceID uuid.UUID) bool {
	running := false
	o.handles.Range(func(_, value interface{}) bool {
		if value.(*jobHandle).sourceID == sourceID {
			running = true
			return false
		}
		return true
	})
	return running
}

// runCrawl executes one crawl job to completion. It owns all mutations of
// the job record from RUNNING to a terminal state.
func (o *Orchestrator) runCrawl(ctx context.Context, job *models.CrawlJob, source *models.Source, provider providers.Provider) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Crawl job panicked", map[string]interface{}{
				"job_id": job.ID,
				"source": source.Name,
				"panic":  fmt.Sprintf("%v", r),
			})
			o.finish(job, models.JobStatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	job.Status = models.JobStatusRunning
	o.flush(job)

	o.logger.Info("Crawl job running", map[string]interface{}{
		"job_id":   job.ID,
		"source":   source.Name,
		"provider": provider.Name(),
	})

	assignments, err := provider.FetchAssignments(ctx, source)
	job.AssignmentsFound = len(assignments)

	if ctx.Err() != nil {
		o.finish(job, models.JobStatusCancelled, "")
		return
	}
	if err != nil && len(assignments) == 0 {
		o.finish(job, models.JobStatusFailed, err.Error())
		return
	}
	if err != nil {
		// Partial listing: keep what was collected and process it.
		o.logger.Warn("Listing partially failed, processing collected items", map[string]interface{}{
			"job_id": job.ID,
			"count":  len(assignments),
			"error":  err.Error(),
		})
	}

	processed := 0
	for _, candidate := range assignments {
		if ctx.Err() != nil {
			o.finish(job, models.JobStatusCancelled, "")
			return
		}

		if err := o.processCandidate(ctx, job, source, candidate); err != nil {
			o.logger.Warn("Failed to process assignment", map[string]interface{}{
				"job_id":      job.ID,
				"external_id": candidate.ExternalID,
				"error":       err.Error(),
			})
		}

		processed++
		if processed%progressFlushInterval == 0 {
			o.flush(job)
		}
	}

	o.finish(job, models.JobStatusSuccess, "")
}

// processCandidate enriches and upserts one assignment candidate
func (o *Orchestrator) processCandidate(ctx context.Context, job *models.CrawlJob, source *models.Source, candidate *models.Assignment) error {
	if candidate.ExternalID == "" {
		return fmt.Errorf("candidate has no external id")
	}
	candidate.SourceID = source.ID
	candidate.Skills = utils.DedupeFold(candidate.Skills)
	if candidate.Currency == "" && (candidate.HourlyRateMin != nil || candidate.HourlyRateMax != nil) {
		candidate.Currency = o.cfg.Locations.DefaultCurrency
	}

	o.normalizer.Enrich(ctx, candidate, source.Name)
	o.ensureReferences(ctx, candidate)

	existing, err := o.stores.Assignments.FindBySourceAndExternalID(ctx, source.ID, candidate.ExternalID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if existing == nil {
		if err := o.stores.Assignments.Create(ctx, candidate); err != nil {
			return err
		}
		job.AssignmentsCreated++
	} else {
		candidate.ID = existing.ID
		candidate.CreatedAt = existing.CreatedAt
		if err := o.stores.Assignments.Update(ctx, candidate); err != nil {
			return err
		}
		job.AssignmentsUpdated++
	}

	job.ProcessedIDs = append(job.ProcessedIDs, candidate.ExternalID)
	return nil
}

// ensureReferences makes sure currency and skill reference rows exist for
// the candidate. Reference failures are not fatal to the assignment.
func (o *Orchestrator) ensureReferences(ctx context.Context, candidate *models.Assignment) {
	if candidate.Currency != "" {
		if _, err := o.stores.References.FindOrCreate(ctx, storage.RefKindCurrency, candidate.Currency); err != nil {
			o.logger.Warn("Failed to ensure currency reference", map[string]interface{}{
				"currency": candidate.Currency,
				"error":    err.Error(),
			})
		}
	}
	for _, skill := range candidate.Skills {
		if _, err := o.stores.References.FindOrCreate(ctx, storage.RefKindSkill, skill); err != nil {
			o.logger.Warn("Failed to ensure skill reference", map[string]interface{}{
				"skill": skill,
				"error": err.Error(),
			})
		}
	}
}

// finish moves the job to a terminal state and persists it
func (o *Orchestrator) finish(job *models.CrawlJob, status models.JobStatus, errorMessage string) {
	now := time.Now()
	job.Status = status
	job.EndTime = &now
	job.ErrorMessage = errorMessage
	o.flush(job)

	o.logger.Info("Crawl job finished", map[string]interface{}{
		"job_id":   job.ID,
		"status":   string(status),
		"found":    job.AssignmentsFound,
		"created":  job.AssignmentsCreated,
		"updated":  job.AssignmentsUpdated,
		"duration": utils.FormatDuration(now.Sub(job.StartTime)),
	})
}

// flush persists the current job state with a context detached from the
// possibly cancelled run context
func (o *Orchestrator) flush(job *models.CrawlJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.stores.CrawlJobs.Update(ctx, job); err != nil {
		o.logger.Error("Failed to persist crawl job state", map[string]interface{}{
			"job_id": job.ID,
			"error":  err.Error(),
		})
	}
}
