// Package providers contains the source-specific crawlers. Each provider
// knows how to turn one family of sources into assignment candidates; the
// registry picks the right provider for a source at crawl time.
package providers

import (
	"context"

	"uppdragsradarn-crawler/pkg/models"
)

// Provider fetches assignment candidates from one family of sources.
// Implementations parse only; location enrichment and persistence happen in
// the orchestrator.
type Provider interface {
	// Name returns the human-readable provider name
	Name() string

	// Supports reports whether this provider can crawl the given source
	Supports(source *models.Source) bool

	// FetchAssignments crawls the source and returns assignment candidates.
	// Partial results with an error are allowed when later pages fail.
	FetchAssignments(ctx context.Context, source *models.Source) ([]*models.Assignment, error)
}
