package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is a provider-produced candidate record pending upsert. Identity
// for deduplication is (SourceID, ExternalID).
type Assignment struct {
	ID                  uuid.UUID  `json:"id"`
	SourceID            uuid.UUID  `json:"source_id"`
	ExternalID          string     `json:"external_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	CompanyName         string     `json:"company_name"`
	LocationText        string     `json:"location_text"`
	Location            *Location  `json:"location,omitempty"`
	Remote              bool       `json:"remote"`
	RemotePercentage    *int       `json:"remote_percentage,omitempty"`
	HourlyRateMin       *int       `json:"hourly_rate_min,omitempty"`
	HourlyRateMax       *int       `json:"hourly_rate_max,omitempty"`
	Currency            string     `json:"currency,omitempty"`
	DurationMonths      *int       `json:"duration_months,omitempty"`
	HoursPerWeek        *int       `json:"hours_per_week,omitempty"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	Skills              []string   `json:"skills,omitempty"`
	WorkArrangement     string     `json:"work_arrangement,omitempty"`
	RequirementLevel    string     `json:"requirement_level,omitempty"`
	ApplicationURL      string     `json:"application_url"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ExtractedAssignment is the JSON shape the extraction model is asked to
// return. All fields are optional; the extractor applies them defensively.
type ExtractedAssignment struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	CompanyName         string   `json:"companyName"`
	Location            string   `json:"location"`
	HourlyRateMin       *int     `json:"hourlyRateMin"`
	HourlyRateMax       *int     `json:"hourlyRateMax"`
	Currency            string   `json:"currency"`
	DurationMonths      *int     `json:"durationMonths"`
	HoursPerWeek        *int     `json:"hoursPerWeek"`
	StartDate           string   `json:"startDate"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	Skills              []string `json:"skills"`
	WorkArrangement     string   `json:"workArrangement"`
	RequirementLevel    string   `json:"requirementLevel"`
	ApplicationURL      string   `json:"applicationUrl"`
	ExternalID          string   `json:"externalId"`
}

// ModelOverrides carries per-source tuning for the extraction model.
// Zero-valued fields fall back to the globally configured defaults.
type ModelOverrides struct {
	Model              string
	Temperature        float64
	MaxResponseTokens  int
	CustomInstructions string
}
