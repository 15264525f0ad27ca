// Package postgres implements the storage interfaces on top of a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/storage"
)

// Connect builds a pgx pool from the database configuration and verifies
// connectivity before returning.
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewStores wires all postgres-backed stores around one pool.
func NewStores(pool *pgxpool.Pool) *storage.Stores {
	return &storage.Stores{
		Sources:     NewSourceStore(pool),
		Assignments: NewAssignmentStore(pool),
		CrawlJobs:   NewCrawlJobStore(pool),
		Locations:   NewLocationStore(pool),
		Aliases:     NewAliasStore(pool),
		References:  NewReferenceStore(pool),
	}
}
