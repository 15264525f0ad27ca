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

// SourceStore reads crawl source definitions from postgres.
type SourceStore struct {
	db DB
}

func NewSourceStore(db DB) *SourceStore {
	return &SourceStore{db: db}
}

const sourceColumns = `id, name, base_url, source_type, config, active, created_at, updated_at`

func (s *SourceStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Source, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find source %s: %w", id, err)
	}
	return src, nil
}

func (s *SourceStore) FindActive(ctx context.Context) ([]*models.Source, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE active = true ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sources: %w", err)
	}
	defer rows.Close()

	var out []*models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func scanSource(row pgx.Row) (*models.Source, error) {
	var src models.Source
	err := row.Scan(&src.ID, &src.Name, &src.BaseURL, &src.SourceType,
		&src.Config, &src.Active, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &src, nil
}
