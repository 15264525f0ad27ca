package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
)

// AssignmentStore persists assignments in postgres. Location links are stored
// as a nullable foreign key resolved by the normalizer before upsert.
type AssignmentStore struct {
	db DB
}

func NewAssignmentStore(db DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentColumns = `id, source_id, external_id, title, description, company_name,
	location_text, location_id, remote, remote_percentage,
	hourly_rate_min, hourly_rate_max, currency, duration_months, hours_per_week,
	start_date, application_deadline, skills, work_arrangement, requirement_level,
	application_url, active, created_at, updated_at`

func (s *AssignmentStore) FindBySourceAndExternalID(ctx context.Context, sourceID uuid.UUID, externalID string) (*models.Assignment, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE source_id = $1 AND external_id = $2`,
		sourceID, externalID)
	assignment, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find assignment %s/%s: %w", sourceID, externalID, err)
	}
	return assignment, nil
}

func (s *AssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO assignments (id, source_id, external_id, title, description, company_name,
			location_text, location_id, remote, remote_percentage,
			hourly_rate_min, hourly_rate_max, currency, duration_months, hours_per_week,
			start_date, application_deadline, skills, work_arrangement, requirement_level,
			application_url, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		a.ID, a.SourceID, a.ExternalID, a.Title, a.Description, a.CompanyName,
		a.LocationText, locationID(a), a.Remote, a.RemotePercentage,
		a.HourlyRateMin, a.HourlyRateMax, a.Currency, a.DurationMonths, a.HoursPerWeek,
		a.StartDate, a.ApplicationDeadline, a.Skills, a.WorkArrangement, a.RequirementLevel,
		a.ApplicationURL, a.Active, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment %s/%s: %w", a.SourceID, a.ExternalID, err)
	}
	return nil
}

func (s *AssignmentStore) Update(ctx context.Context, a *models.Assignment) error {
	a.UpdatedAt = time.Now()

	tag, err := s.db.Exec(ctx,
		`UPDATE assignments SET title = $3, description = $4, company_name = $5,
			location_text = $6, location_id = $7, remote = $8, remote_percentage = $9,
			hourly_rate_min = $10, hourly_rate_max = $11, currency = $12,
			duration_months = $13, hours_per_week = $14,
			start_date = $15, application_deadline = $16, skills = $17,
			work_arrangement = $18, requirement_level = $19,
			application_url = $20, active = $21, updated_at = $22
		 WHERE source_id = $1 AND external_id = $2`,
		a.SourceID, a.ExternalID, a.Title, a.Description, a.CompanyName,
		a.LocationText, locationID(a), a.Remote, a.RemotePercentage,
		a.HourlyRateMin, a.HourlyRateMax, a.Currency,
		a.DurationMonths, a.HoursPerWeek,
		a.StartDate, a.ApplicationDeadline, a.Skills,
		a.WorkArrangement, a.RequirementLevel,
		a.ApplicationURL, a.Active, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update assignment %s/%s: %w", a.SourceID, a.ExternalID, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *AssignmentStore) CountBySource(ctx context.Context, sourceID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignments WHERE source_id = $1`, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assignments for source %s: %w", sourceID, err)
	}
	return count, nil
}

func locationID(a *models.Assignment) *uuid.UUID {
	if a.Location == nil || a.Location.ID == uuid.Nil {
		return nil
	}
	id := a.Location.ID
	return &id
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	var locID *uuid.UUID
	err := row.Scan(&a.ID, &a.SourceID, &a.ExternalID, &a.Title, &a.Description, &a.CompanyName,
		&a.LocationText, &locID, &a.Remote, &a.RemotePercentage,
		&a.HourlyRateMin, &a.HourlyRateMax, &a.Currency, &a.DurationMonths, &a.HoursPerWeek,
		&a.StartDate, &a.ApplicationDeadline, &a.Skills, &a.WorkArrangement, &a.RequirementLevel,
		&a.ApplicationURL, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if locID != nil {
		a.Location = &models.Location{ID: *locID}
	}
	return &a, nil
}
