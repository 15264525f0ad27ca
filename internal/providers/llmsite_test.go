package providers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/extractor"
	"uppdragsradarn-crawler/pkg/models"
)

type fakeModel struct{}

func (fakeModel) ExtractAssignment(_ context.Context, content, sourceURL string, _ *models.ModelOverrides) (*models.ExtractedAssignment, error) {
	return &models.ExtractedAssignment{
		Title:          "Extracted Assignment",
		Description:    content,
		CompanyName:    "Client AB",
		Location:       "Göteborg",
		StartDate:      "2026-05-01",
		ApplicationURL: sourceURL,
	}, nil
}

func llmSource() *models.Source {
	return &models.Source{
		ID:         uuid.New(),
		Name:       "Emagine Consulting",
		BaseURL:    "https://emagine-consulting.se",
		SourceType: models.SourceTypeLLMScraper,
		Config: map[string]string{
			"listUrl":      "https://emagine-consulting.se/jobs",
			"linkSelector": "a.job-link",
			"providerId":   "emagine",
		},
		Active: true,
	}
}

const llmListingHTML = `<html><body>
	<a class="job-link" href="/job/1001">First</a>
	<a class="job-link" href="/job/1002">Second</a>
	<a class="job-link" href="/job/1001">Duplicate</a>
	<a class="other" href="/about">About</a>
</body></html>`

func llmDetailHTML(title string) string {
	return `<html><body><main class="job-content">
		<h1>` + title + `</h1>
		<p>A detailed description of the assignment long enough to survive the content filter and reach the extraction model.</p>
	</main></body></html>`
}

func newLLMProvider(fetcher *fakeFetcher) *LLMSiteProvider {
	cfg := &config.Config{}
	cfg.Workers.BatchWorkers = 2
	cfg.Crawler.CourtesyDelay = time.Millisecond
	ex := extractor.NewStructuredExtractor(fetcher, fakeModel{}, cfg)
	return NewLLMSiteProvider(fetcher, ex)
}

func TestLLMSiteProvider_Supports(t *testing.T) {
	p := newLLMProvider(&fakeFetcher{})

	assert.True(t, p.Supports(llmSource()))

	noSelector := llmSource()
	delete(noSelector.Config, "linkSelector")
	assert.False(t, p.Supports(noSelector))
}

func TestLLMSiteProvider_FetchAssignments(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://emagine-consulting.se/jobs":     llmListingHTML,
		"https://emagine-consulting.se/job/1001": llmDetailHTML("First Assignment"),
		"https://emagine-consulting.se/job/1002": llmDetailHTML("Second Assignment"),
	}}
	p := newLLMProvider(fetcher)

	assignments, err := p.FetchAssignments(context.Background(), llmSource())
	require.NoError(t, err)

	// Duplicate link is crawled once.
	require.Len(t, assignments, 2)

	a := assignments[0]
	assert.Equal(t, "Extracted Assignment", a.Title)
	assert.Equal(t, "Client AB", a.CompanyName)
	assert.Equal(t, "Göteborg", a.LocationText)
	assert.Equal(t, "1001", a.ExternalID)
	assert.Equal(t, "https://emagine-consulting.se/job/1001", a.ApplicationURL)
	require.NotNil(t, a.StartDate)
	assert.Equal(t, time.May, a.StartDate.Month())
}

func TestLLMSiteProvider_MaxAssignments(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://emagine-consulting.se/jobs":     llmListingHTML,
		"https://emagine-consulting.se/job/1001": llmDetailHTML("First"),
		"https://emagine-consulting.se/job/1002": llmDetailHTML("Second"),
	}}
	p := newLLMProvider(fetcher)

	src := llmSource()
	src.Config["maxAssignments"] = "1"

	assignments, err := p.FetchAssignments(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestLLMSiteProvider_SkipsFailedDetailPages(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://emagine-consulting.se/jobs":     llmListingHTML,
		"https://emagine-consulting.se/job/1002": llmDetailHTML("Second Assignment"),
	}}
	p := newLLMProvider(fetcher)

	assignments, err := p.FetchAssignments(context.Background(), llmSource())
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "1002", assignments[0].ExternalID)
}

func TestRegistry_PicksFirstSupporting(t *testing.T) {
	fetcher := &fakeFetcher{}
	registry := NewRegistry()
	registry.Register(NewStandardProvider(fetcher))
	registry.Register(NewJSONAPIProvider(fetcher))

	p, err := registry.ProviderFor(apiSource())
	require.NoError(t, err)
	assert.Equal(t, "JSON API Provider", p.Name())

	unknown := &models.Source{Name: "Mystery", SourceType: "FTP"}
	_, err = registry.ProviderFor(unknown)
	assert.Error(t, err)
}
