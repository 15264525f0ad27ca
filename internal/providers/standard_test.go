package providers

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/pkg/models"
)

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) FetchWithBody(_ context.Context, _, url, _ string, _ []byte) ([]byte, error) {
	return f.Fetch(context.Background(), url)
}

func webSource(config map[string]string) *models.Source {
	return &models.Source{
		ID:         uuid.New(),
		Name:       "Test Source",
		BaseURL:    "https://jobs.example.se",
		SourceType: models.SourceTypeWebScraper,
		Config:     config,
		Active:     true,
	}
}

const listingHTML = `<html><body>
	<div class="job-card">
		<h2 class="title">Go Developer</h2>
		<a class="link" href="/assignment/go-developer-123">Read more</a>
		<span class="company">Acme AB</span>
		<span class="location">Stockholm, Sverige</span>
		<span class="rate">800-950 SEK</span>
		<span class="deadline">2026-03-15</span>
		<span class="skill">Go</span><span class="skill">Kubernetes</span>
	</div>
	<div class="job-card">
		<h2 class="title">Data Engineer</h2>
		<a class="link" href="/assignment/data-engineer-456">Read more</a>
	</div>
	<div class="job-card"><span class="no-title">broken item</span></div>
</body></html>`

func standardConfig() map[string]string {
	return map[string]string{
		"listUrl":             "https://jobs.example.se/assignments",
		"jobSelector":         ".job-card",
		"titleSelector":       ".title",
		"linkSelector":        ".link",
		"companySelector":     ".company",
		"locationSelector":    ".location",
		"rateSelector":        ".rate",
		"deadlineSelector":    ".deadline",
		"skillsSelector":      ".skill",
	}
}

func TestStandardProvider_Supports(t *testing.T) {
	p := NewStandardProvider(&fakeFetcher{})

	assert.True(t, p.Supports(webSource(standardConfig())))
	assert.False(t, p.Supports(webSource(map[string]string{"listUrl": "x"})))

	api := webSource(standardConfig())
	api.SourceType = models.SourceTypeJSONAPI
	assert.False(t, p.Supports(api))
}

func TestStandardProvider_FetchAssignments(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://jobs.example.se/assignments": listingHTML,
	}}
	p := NewStandardProvider(fetcher)
	source := webSource(standardConfig())

	assignments, err := p.FetchAssignments(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	first := assignments[0]
	assert.Equal(t, "Go Developer", first.Title)
	assert.Equal(t, "Acme AB", first.CompanyName)
	assert.Equal(t, "https://jobs.example.se/assignment/go-developer-123", first.ApplicationURL)
	assert.Equal(t, "go-developer-123", first.ExternalID)
	assert.Equal(t, "Stockholm, Sverige", first.LocationText)
	require.NotNil(t, first.HourlyRateMin)
	assert.Equal(t, 800, *first.HourlyRateMin)
	assert.Equal(t, 950, *first.HourlyRateMax)
	assert.Equal(t, "SEK", first.Currency)
	require.NotNil(t, first.ApplicationDeadline)
	assert.ElementsMatch(t, []string{"Go", "Kubernetes"}, first.Skills)

	// Item without configured optional fields falls back to defaults.
	second := assignments[1]
	assert.Equal(t, "Test Source", second.CompanyName)
	assert.Equal(t, "Sweden", second.LocationText)
}

func TestStandardProvider_FirstPageFailureFails(t *testing.T) {
	p := NewStandardProvider(&fakeFetcher{pages: map[string]string{}})

	_, err := p.FetchAssignments(context.Background(), webSource(standardConfig()))
	assert.Error(t, err)
}

func TestStandardProvider_Pagination(t *testing.T) {
	page2 := `<html><body>
		<div class="job-card"><h2 class="title">Second Page Job</h2></div>
	</body></html>`
	pagedListing := listingHTML[:len(listingHTML)-len("</body></html>")] +
		`<a class="next">Next</a></body></html>`

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://jobs.example.se/assignments":        pagedListing,
		"https://jobs.example.se/assignments?page=2": page2,
	}}

	cfg := standardConfig()
	cfg["paginationSelector"] = ".next"
	cfg["maxPages"] = "2"

	p := NewStandardProvider(fetcher)
	assignments, err := p.FetchAssignments(context.Background(), webSource(cfg))
	require.NoError(t, err)
	assert.Len(t, assignments, 3)
	assert.Equal(t, "Second Page Job", assignments[2].Title)
}
