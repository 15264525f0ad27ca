package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
)

// CrawlJobStore persists crawl job executions in postgres.
type CrawlJobStore struct {
	db DB
}

func NewCrawlJobStore(db DB) *CrawlJobStore {
	return &CrawlJobStore{db: db}
}

const crawlJobColumns = `id, source_id, source_name, status, start_time, end_time,
	assignments_found, assignments_created, assignments_updated, error_message, processed_ids`

func (s *CrawlJobStore) Create(ctx context.Context, job *models.CrawlJob) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO crawl_jobs (id, source_id, source_name, status, start_time, end_time,
			assignments_found, assignments_created, assignments_updated, error_message, processed_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.SourceID, job.SourceName, job.Status, job.StartTime, job.EndTime,
		job.AssignmentsFound, job.AssignmentsCreated, job.AssignmentsUpdated,
		job.ErrorMessage, job.ProcessedIDs)
	if err != nil {
		return fmt.Errorf("failed to create crawl job %s: %w", job.ID, err)
	}
	return nil
}

func (s *CrawlJobStore) Update(ctx context.Context, job *models.CrawlJob) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE crawl_jobs SET status = $2, end_time = $3,
			assignments_found = $4, assignments_created = $5, assignments_updated = $6,
			error_message = $7, processed_ids = $8
		 WHERE id = $1`,
		job.ID, job.Status, job.EndTime,
		job.AssignmentsFound, job.AssignmentsCreated, job.AssignmentsUpdated,
		job.ErrorMessage, job.ProcessedIDs)
	if err != nil {
		return fmt.Errorf("failed to update crawl job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *CrawlJobStore) FindByID(ctx context.Context, id string) (*models.CrawlJob, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+crawlJobColumns+` FROM crawl_jobs WHERE id = $1`, id)
	job, err := scanCrawlJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find crawl job %s: %w", id, err)
	}
	return job, nil
}

func (s *CrawlJobStore) FindRecent(ctx context.Context, limit int) ([]*models.CrawlJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+crawlJobColumns+` FROM crawl_jobs ORDER BY start_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent crawl jobs: %w", err)
	}
	defer rows.Close()
	return collectCrawlJobs(rows)
}

func (s *CrawlJobStore) FindBySource(ctx context.Context, sourceID uuid.UUID, limit int) ([]*models.CrawlJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+crawlJobColumns+` FROM crawl_jobs WHERE source_id = $1 ORDER BY start_time DESC LIMIT $2`,
		sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl jobs for source %s: %w", sourceID, err)
	}
	defer rows.Close()
	return collectCrawlJobs(rows)
}

func (s *CrawlJobStore) FindByStatus(ctx context.Context, status models.JobStatus) ([]*models.CrawlJob, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+crawlJobColumns+` FROM crawl_jobs WHERE status = $1 ORDER BY start_time DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl jobs with status %s: %w", status, err)
	}
	defer rows.Close()
	return collectCrawlJobs(rows)
}

func collectCrawlJobs(rows pgx.Rows) ([]*models.CrawlJob, error) {
	var out []*models.CrawlJob
	for rows.Next() {
		job, err := scanCrawlJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanCrawlJob(row pgx.Row) (*models.CrawlJob, error) {
	var job models.CrawlJob
	err := row.Scan(&job.ID, &job.SourceID, &job.SourceName, &job.Status,
		&job.StartTime, &job.EndTime,
		&job.AssignmentsFound, &job.AssignmentsCreated, &job.AssignmentsUpdated,
		&job.ErrorMessage, &job.ProcessedIDs)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
