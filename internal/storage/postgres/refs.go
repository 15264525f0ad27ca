package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReferenceStore resolves shared reference rows with find-or-create
// semantics. Keys are normalized to upper case before lookup.
type ReferenceStore struct {
	db DB
}

func NewReferenceStore(db DB) *ReferenceStore {
	return &ReferenceStore{db: db}
}

func (s *ReferenceStore) FindOrCreate(ctx context.Context, kind, key string) (uuid.UUID, error) {
	key = strings.ToUpper(strings.TrimSpace(key))

	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM reference_data WHERE kind = $1 AND key = $2`, kind, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up reference %s/%s: %w", kind, key, err)
	}

	id = uuid.New()
	// Concurrent inserts race on the unique (kind, key) index; the returning
	// clause resolves to the winning row either way.
	err = s.db.QueryRow(ctx,
		`INSERT INTO reference_data (id, kind, key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (kind, key) DO UPDATE SET key = EXCLUDED.key
		 RETURNING id`,
		id, kind, key).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create reference %s/%s: %w", kind, key, err)
	}
	return id, nil
}
