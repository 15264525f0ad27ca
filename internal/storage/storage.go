// Package storage defines the persistence collaborators the crawler depends
// on. The core only relies on find, upsert and count semantics; concrete
// implementations live in the postgres and memory subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"uppdragsradarn-crawler/pkg/models"
)

// ErrNotFound is returned when a lookup matches no record
var ErrNotFound = errors.New("record not found")

// Reference data kinds resolved through ReferenceStore
const (
	RefKindCurrency = "CURRENCY"
	RefKindSkill    = "SKILL"
)

// SourceStore provides read access to configured crawl targets
type SourceStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Source, error)
	FindActive(ctx context.Context) ([]*models.Source, error)
}

// AssignmentStore persists assignments keyed by (source, externalID)
type AssignmentStore interface {
	FindBySourceAndExternalID(ctx context.Context, sourceID uuid.UUID, externalID string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	CountBySource(ctx context.Context, sourceID uuid.UUID) (int, error)
}

// CrawlJobStore persists crawl job executions
type CrawlJobStore interface {
	Create(ctx context.Context, job *models.CrawlJob) error
	Update(ctx context.Context, job *models.CrawlJob) error
	FindByID(ctx context.Context, id string) (*models.CrawlJob, error)
	FindRecent(ctx context.Context, limit int) ([]*models.CrawlJob, error)
	FindBySource(ctx context.Context, sourceID uuid.UUID, limit int) ([]*models.CrawlJob, error)
	FindByStatus(ctx context.Context, status models.JobStatus) ([]*models.CrawlJob, error)
}

// LocationStore provides access to canonical locations
type LocationStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindByCityAndCountry(ctx context.Context, city, countryCode string) (*models.Location, error)
	FindByCityContaining(ctx context.Context, fragment string) ([]*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
}

// AliasStore persists learned free-text location aliases
type AliasStore interface {
	FindBySourceTextAndProvider(ctx context.Context, sourceText, sourceProvider string) (*models.LocationAlias, error)
	FindByAliasText(ctx context.Context, aliasText string) (*models.LocationAlias, error)
	FindAllActive(ctx context.Context) ([]*models.LocationAlias, error)
	Create(ctx context.Context, alias *models.LocationAlias) error
}

// ReferenceStore resolves shared reference data (currencies, skills,
// statuses) with find-or-create semantics
type ReferenceStore interface {
	FindOrCreate(ctx context.Context, kind, key string) (uuid.UUID, error)
}

// Stores aggregates all persistence collaborators for wiring
type Stores struct {
	Sources     SourceStore
	Assignments AssignmentStore
	CrawlJobs   CrawlJobStore
	Locations   LocationStore
	Aliases     AliasStore
	References  ReferenceStore
}
