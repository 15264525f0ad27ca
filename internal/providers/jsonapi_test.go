package providers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/pkg/models"
)

const apiResponse = `{
	"content": [
		{
			"id": "7781",
			"title": "Java Architect",
			"clientName": "Verama Client",
			"description": "Long running assignment.",
			"locations": ["Stockholm", "Solna"],
			"skills": ["Java", "AWS"],
			"startDate": "2026-04-01",
			"rate": 1050,
			"rateCurrency": "SEK"
		},
		{
			"id": "7782",
			"title": ""
		}
	]
}`

func apiSource() *models.Source {
	return &models.Source{
		ID:         uuid.New(),
		Name:       "Verama",
		BaseURL:    "https://app.verama.com",
		SourceType: models.SourceTypeJSONAPI,
		Config: map[string]string{
			"apiUrl":        "https://app.verama.com/api/public/job-requests",
			"itemsPath":     "content",
			"locationField": "locations",
			"urlTemplate":   "https://app.verama.com/jobs/%s",
		},
		Active: true,
	}
}

func TestJSONAPIProvider_Supports(t *testing.T) {
	p := NewJSONAPIProvider(&fakeFetcher{})

	assert.True(t, p.Supports(apiSource()))

	web := apiSource()
	web.SourceType = models.SourceTypeWebScraper
	assert.False(t, p.Supports(web))
}

func TestJSONAPIProvider_FetchAssignments(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://app.verama.com/api/public/job-requests": apiResponse,
	}}
	p := NewJSONAPIProvider(fetcher)

	assignments, err := p.FetchAssignments(context.Background(), apiSource())
	require.NoError(t, err)

	// Second item has no title and is skipped.
	require.Len(t, assignments, 1)

	a := assignments[0]
	assert.Equal(t, "7781", a.ExternalID)
	assert.Equal(t, "Java Architect", a.Title)
	assert.Equal(t, "Verama Client", a.CompanyName)
	assert.Equal(t, "Stockholm, Solna", a.LocationText)
	assert.Equal(t, []string{"Java", "AWS"}, a.Skills)
	require.NotNil(t, a.StartDate)
	require.NotNil(t, a.HourlyRateMin)
	assert.Equal(t, 1050, *a.HourlyRateMin)
	assert.Equal(t, "SEK", a.Currency)
	assert.Equal(t, "https://app.verama.com/jobs/7781", a.ApplicationURL)
}

func TestJSONAPIProvider_BadItemsPath(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://app.verama.com/api/public/job-requests": `{"data": []}`,
	}}
	p := NewJSONAPIProvider(fetcher)

	src := apiSource()
	src.Config["itemsPath"] = "content"
	_, err := p.FetchAssignments(context.Background(), src)
	assert.Error(t, err)
}

func TestItemsAt(t *testing.T) {
	root := map[string]interface{}{
		"result": map[string]interface{}{
			"items": []interface{}{"a", "b"},
		},
	}

	items, err := itemsAt(root, "result.items")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = itemsAt(root, "missing.path")
	assert.Error(t, err)
}
