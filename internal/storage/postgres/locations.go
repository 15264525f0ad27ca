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

// LocationStore reads canonical locations from postgres.
type LocationStore struct {
	db DB
}

func NewLocationStore(db DB) *LocationStore {
	return &LocationStore{db: db}
}

const locationColumns = `id, city, region, country_code, country_name, population, active, created_at, updated_at`

func (s *LocationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find location %s: %w", id, err)
	}
	return loc, nil
}

func (s *LocationStore) FindByCityAndCountry(ctx context.Context, city, countryCode string) (*models.Location, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations
		 WHERE LOWER(city) = LOWER($1) AND country_code = $2 AND active = true`,
		city, countryCode)
	loc, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find location %s/%s: %w", city, countryCode, err)
	}
	return loc, nil
}

func (s *LocationStore) FindByCityContaining(ctx context.Context, fragment string) ([]*models.Location, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+locationColumns+` FROM locations
		 WHERE city ILIKE '%' || $1 || '%' AND active = true
		 ORDER BY population DESC NULLS LAST`,
		fragment)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations containing %q: %w", fragment, err)
	}
	defer rows.Close()

	var out []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *LocationStore) Create(ctx context.Context, loc *models.Location) error {
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	now := time.Now()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO locations (id, city, region, country_code, country_name, population, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		loc.ID, loc.City, loc.Region, loc.CountryCode, loc.CountryName,
		loc.Population, loc.Active, loc.CreatedAt, loc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create location %s: %w", loc.City, err)
	}
	return nil
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var loc models.Location
	err := row.Scan(&loc.ID, &loc.City, &loc.Region, &loc.CountryCode, &loc.CountryName,
		&loc.Population, &loc.Active, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// AliasStore persists learned location aliases in postgres.
type AliasStore struct {
	db DB
}

func NewAliasStore(db DB) *AliasStore {
	return &AliasStore{db: db}
}

const aliasColumns = `id, location_id, alias_text, source_text, source_provider,
	match_confidence, manual_match, active, created_at`

func (s *AliasStore) FindBySourceTextAndProvider(ctx context.Context, sourceText, sourceProvider string) (*models.LocationAlias, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+aliasColumns+` FROM location_aliases
		 WHERE LOWER(source_text) = LOWER($1) AND source_provider = $2 AND active = true`,
		sourceText, sourceProvider)
	alias, err := scanAlias(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find alias %q for provider %s: %w", sourceText, sourceProvider, err)
	}
	return alias, nil
}

func (s *AliasStore) FindByAliasText(ctx context.Context, aliasText string) (*models.LocationAlias, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+aliasColumns+` FROM location_aliases
		 WHERE LOWER(alias_text) = LOWER($1) AND active = true
		 ORDER BY manual_match DESC, match_confidence DESC LIMIT 1`,
		aliasText)
	alias, err := scanAlias(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find alias %q: %w", aliasText, err)
	}
	return alias, nil
}

func (s *AliasStore) FindAllActive(ctx context.Context) ([]*models.LocationAlias, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+aliasColumns+` FROM location_aliases WHERE active = true`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active aliases: %w", err)
	}
	defer rows.Close()

	var out []*models.LocationAlias
	for rows.Next() {
		alias, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		out = append(out, alias)
	}
	return out, rows.Err()
}

func (s *AliasStore) Create(ctx context.Context, alias *models.LocationAlias) error {
	if alias.ID == uuid.Nil {
		alias.ID = uuid.New()
	}
	alias.CreatedAt = time.Now()

	_, err := s.db.Exec(ctx,
		`INSERT INTO location_aliases (id, location_id, alias_text, source_text, source_provider,
			match_confidence, manual_match, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (source_text, source_provider) DO NOTHING`,
		alias.ID, alias.LocationID, alias.AliasText, alias.SourceText, alias.SourceProvider,
		alias.MatchConfidence, alias.ManualMatch, alias.Active, alias.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alias %q: %w", alias.AliasText, err)
	}
	return nil
}

func scanAlias(row pgx.Row) (*models.LocationAlias, error) {
	var alias models.LocationAlias
	err := row.Scan(&alias.ID, &alias.LocationID, &alias.AliasText, &alias.SourceText,
		&alias.SourceProvider, &alias.MatchConfidence, &alias.ManualMatch,
		&alias.Active, &alias.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &alias, nil
}
