package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a canonical location. Identity is (City, Region, CountryCode).
type Location struct {
	ID          uuid.UUID `json:"id"`
	City        string    `json:"city"`
	Region      string    `json:"region,omitempty"`
	CountryCode string    `json:"country_code"`
	CountryName string    `json:"country_name,omitempty"`
	Population  *int64    `json:"population,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LocationAlias maps a recorded free-text variant to a canonical location.
// Automatically recorded aliases are unique by (SourceText, SourceProvider).
type LocationAlias struct {
	ID              uuid.UUID `json:"id"`
	LocationID      uuid.UUID `json:"location_id"`
	AliasText       string    `json:"alias_text"`
	SourceText      string    `json:"source_text,omitempty"`
	SourceProvider  string    `json:"source_provider,omitempty"`
	MatchConfidence float64   `json:"match_confidence"`
	ManualMatch     bool      `json:"manual_match"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}
