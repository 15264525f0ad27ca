package llm

import (
	"context"

	"uppdragsradarn-crawler/pkg/models"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// ExtractAssignment processes cleaned page content and extracts a
	// structured assignment. A malformed model response yields a partial
	// result with the raw text as description, not an error. Overrides may
	// be nil; set fields take precedence over the configured defaults.
	ExtractAssignment(ctx context.Context, content, sourceURL string, overrides *models.ModelOverrides) (*models.ExtractedAssignment, error)

	// IsHealthy checks if the LLM provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the LLM provider
	GetProviderName() string
}
