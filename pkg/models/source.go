package models

import (
	"time"

	"github.com/google/uuid"
)

// Source type tags used by provider matching.
const (
	SourceTypeWebScraper = "WEB_SCRAPER"
	SourceTypeJSONAPI    = "JSON_API"
	SourceTypeLLMScraper = "LLM_SCRAPER"
)

// Source is one external site or API configured as a crawl target.
// The crawler treats sources as read-only reference data.
type Source struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	BaseURL    string            `json:"base_url"`
	SourceType string            `json:"source_type"`
	Config     map[string]string `json:"config,omitempty"`
	Active     bool              `json:"active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ConfigValue returns a configuration value for the source, or the empty
// string when the key is absent.
func (s *Source) ConfigValue(key string) string {
	if s.Config == nil {
		return ""
	}
	return s.Config[key]
}
