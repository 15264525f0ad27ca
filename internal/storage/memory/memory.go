// Package memory provides mutex-guarded in-memory store implementations.
// They back tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/pkg/models"
)

// NewStores returns a fully wired in-memory storage.Stores.
func NewStores() *storage.Stores {
	return &storage.Stores{
		Sources:     NewSourceStore(),
		Assignments: NewAssignmentStore(),
		CrawlJobs:   NewCrawlJobStore(),
		Locations:   NewLocationStore(),
		Aliases:     NewAliasStore(),
		References:  NewReferenceStore(),
	}
}

// SourceStore is an in-memory storage.SourceStore.
type SourceStore struct {
	mu      sync.RWMutex
	sources map[uuid.UUID]*models.Source
}

func NewSourceStore() *SourceStore {
	return &SourceStore{sources: make(map[uuid.UUID]*models.Source)}
}

// Add seeds a source. Test helper, not part of the storage interface.
func (s *SourceStore) Add(source *models.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *source
	s.sources[source.ID] = &cp
}

func (s *SourceStore) FindByID(_ context.Context, id uuid.UUID) (*models.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *src
	return &cp, nil
}

func (s *SourceStore) FindActive(_ context.Context) ([]*models.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Source
	for _, src := range s.sources {
		if src.Active {
			cp := *src
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type assignmentKey struct {
	sourceID   uuid.UUID
	externalID string
}

// AssignmentStore is an in-memory storage.AssignmentStore.
type AssignmentStore struct {
	mu      sync.RWMutex
	byKey   map[assignmentKey]*models.Assignment
	created int
	updated int
}

func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{byKey: make(map[assignmentKey]*models.Assignment)}
}

func (s *AssignmentStore) FindBySourceAndExternalID(_ context.Context, sourceID uuid.UUID, externalID string) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byKey[assignmentKey{sourceID, externalID}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *AssignmentStore) Create(_ context.Context, assignment *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	now := time.Now()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	cp := *assignment
	s.byKey[assignmentKey{assignment.SourceID, assignment.ExternalID}] = &cp
	s.created++
	return nil
}

func (s *AssignmentStore) Update(_ context.Context, assignment *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey{assignment.SourceID, assignment.ExternalID}
	if _, ok := s.byKey[key]; !ok {
		return storage.ErrNotFound
	}
	assignment.UpdatedAt = time.Now()
	cp := *assignment
	s.byKey[key] = &cp
	s.updated++
	return nil
}

func (s *AssignmentStore) CountBySource(_ context.Context, sourceID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.byKey {
		if key.sourceID == sourceID {
			count++
		}
	}
	return count, nil
}

// CrawlJobStore is an in-memory storage.CrawlJobStore.
type CrawlJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.CrawlJob
}

func NewCrawlJobStore() *CrawlJobStore {
	return &CrawlJobStore{jobs: make(map[string]*models.CrawlJob)}
}

func (s *CrawlJobStore) Create(_ context.Context, job *models.CrawlJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneJob(job)
	s.jobs[job.ID] = cp
	return nil
}

func (s *CrawlJobStore) Update(_ context.Context, job *models.CrawlJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return storage.ErrNotFound
	}
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *CrawlJobStore) FindByID(_ context.Context, id string) (*models.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *CrawlJobStore) FindRecent(_ context.Context, limit int) ([]*models.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CrawlJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, cloneJob(job))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CrawlJobStore) FindBySource(_ context.Context, sourceID uuid.UUID, limit int) ([]*models.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CrawlJob
	for _, job := range s.jobs {
		if job.SourceID == sourceID {
			out = append(out, cloneJob(job))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *CrawlJobStore) FindByStatus(_ context.Context, status models.JobStatus) ([]*models.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CrawlJob
	for _, job := range s.jobs {
		if job.Status == status {
			out = append(out, cloneJob(job))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func cloneJob(job *models.CrawlJob) *models.CrawlJob {
	cp := *job
	if job.ProcessedIDs != nil {
		cp.ProcessedIDs = append([]string(nil), job.ProcessedIDs...)
	}
	return &cp
}

// LocationStore is an in-memory storage.LocationStore.
type LocationStore struct {
	mu        sync.RWMutex
	locations []*models.Location
}

func NewLocationStore() *LocationStore {
	return &LocationStore{}
}

func (s *LocationStore) FindByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, loc := range s.locations {
		if loc.ID == id {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *LocationStore) FindByCityAndCountry(_ context.Context, city, countryCode string) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, loc := range s.locations {
		if strings.EqualFold(loc.City, city) && strings.EqualFold(loc.CountryCode, countryCode) {
			cp := *loc
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *LocationStore) FindByCityContaining(_ context.Context, fragment string) ([]*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(fragment)
	var out []*models.Location
	for _, loc := range s.locations {
		if strings.Contains(strings.ToLower(loc.City), needle) {
			cp := *loc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return population(out[i]) > population(out[j])
	})
	return out, nil
}

func (s *LocationStore) Create(_ context.Context, location *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	now := time.Now()
	location.CreatedAt = now
	location.UpdatedAt = now
	cp := *location
	s.locations = append(s.locations, &cp)
	return nil
}

func population(loc *models.Location) int64 {
	if loc.Population == nil {
		return 0
	}
	return *loc.Population
}

type aliasKey struct {
	sourceText     string
	sourceProvider string
}

// AliasStore is an in-memory storage.AliasStore.
type AliasStore struct {
	mu      sync.RWMutex
	aliases []*models.LocationAlias
	byKey   map[aliasKey]*models.LocationAlias
}

func NewAliasStore() *AliasStore {
	return &AliasStore{byKey: make(map[aliasKey]*models.LocationAlias)}
}

func (s *AliasStore) FindBySourceTextAndProvider(_ context.Context, sourceText, sourceProvider string) (*models.LocationAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alias, ok := s.byKey[aliasKey{strings.ToLower(sourceText), sourceProvider}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *alias
	return &cp, nil
}

func (s *AliasStore) FindByAliasText(_ context.Context, aliasText string) (*models.LocationAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, alias := range s.aliases {
		if alias.Active && strings.EqualFold(alias.AliasText, aliasText) {
			cp := *alias
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *AliasStore) FindAllActive(_ context.Context) ([]*models.LocationAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LocationAlias
	for _, alias := range s.aliases {
		if alias.Active {
			cp := *alias
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *AliasStore) Create(_ context.Context, alias *models.LocationAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	alias.CreatedAt = time.Now()
	cp := *alias
	s.aliases = append(s.aliases, &cp)
	if alias.SourceText != "" {
		s.byKey[aliasKey{strings.ToLower(alias.SourceText), alias.SourceProvider}] = &cp
	}
	return nil
}

// ReferenceStore is an in-memory storage.ReferenceStore.
type ReferenceStore struct {
	mu   sync.Mutex
	refs map[string]uuid.UUID
}

func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{refs: make(map[string]uuid.UUID)}
}

func (s *ReferenceStore) FindOrCreate(_ context.Context, kind, key string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapKey := kind + ":" + strings.ToUpper(key)
	if id, ok := s.refs[mapKey]; ok {
		return id, nil
	}
	id := uuid.New()
	s.refs[mapKey] = id
	return id, nil
}
