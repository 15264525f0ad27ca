package providers

import (
	"fmt"

	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
)

// Registry holds the registered providers in priority order. The first
// provider that supports a source wins, so specialized providers register
// before generic ones.
type Registry struct {
	providers []Provider
	logger    logging.Logger
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{
		logger: logging.GetGlobalLogger(),
	}
}

// Register appends a provider to the registry
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
	r.logger.Debug("Registered crawl provider", map[string]interface{}{
		"provider": p.Name(),
	})
}

// ProviderFor returns the first registered provider supporting the source
func (r *Registry) ProviderFor(source *models.Source) (Provider, error) {
	for _, p := range r.providers {
		if p.Supports(source) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider supports source %q (type %s)", source.Name, source.SourceType)
}

// Providers returns all registered providers
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}
