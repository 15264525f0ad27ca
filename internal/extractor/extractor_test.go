package extractor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/pkg/models"
)

type stubFetcher struct {
	pages map[string]string
	fails map[string]bool
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if s.fails[url] {
		return nil, fmt.Errorf("connection refused")
	}
	body, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return []byte(body), nil
}

type stubModel struct {
	calls  atomic.Int64
	fail   bool
	result *models.ExtractedAssignment

	mu            sync.Mutex
	lastOverrides *models.ModelOverrides
}

func (s *stubModel) ExtractAssignment(_ context.Context, content, sourceURL string, overrides *models.ModelOverrides) (*models.ExtractedAssignment, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastOverrides = overrides
	s.mu.Unlock()
	if s.fail {
		return nil, fmt.Errorf("model unavailable")
	}
	if s.result != nil {
		out := *s.result
		return &out, nil
	}
	return &models.ExtractedAssignment{
		Title:          "Extracted from " + sourceURL,
		Description:    content,
		ApplicationURL: sourceURL,
	}, nil
}

func detailPage(title string) string {
	return `<html><body><main class="job-content">
		<h1>` + title + `</h1>
		<p>A long enough description of the assignment to survive filtering, covering scope, duration and the expected profile of the consultant.</p>
	</main></body></html>`
}

func testExtractorConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Workers.BatchWorkers = 2
	cfg.Crawler.CourtesyDelay = time.Millisecond
	return cfg
}

func TestExtract_Pipeline(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/a/1": detailPage("Go Developer"),
	}}
	model := &stubModel{}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	extracted, err := e.Extract(context.Background(), "test", "https://example.com/a/1")
	require.NoError(t, err)

	assert.Equal(t, "Extracted from https://example.com/a/1", extracted.Title)
	assert.Contains(t, extracted.Description, "Go Developer")
	assert.NotContains(t, extracted.Description, "<main")
}

func TestExtract_FetchFailure(t *testing.T) {
	fetcher := &stubFetcher{fails: map[string]bool{"https://example.com/a/1": true}}
	e := NewStructuredExtractor(fetcher, &stubModel{}, testExtractorConfig())

	_, err := e.Extract(context.Background(), "test", "https://example.com/a/1")
	assert.Error(t, err)
}

func TestExtract_PassesProviderModelRules(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{
		"https://portal.emagine.org/jobs/1": detailPage("Data Engineer"),
	}}
	model := &stubModel{}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	_, err := e.Extract(context.Background(), "emagine", "https://portal.emagine.org/jobs/1")
	require.NoError(t, err)

	model.mu.Lock()
	overrides := model.lastOverrides
	model.mu.Unlock()
	require.NotNil(t, overrides)
	assert.InDelta(t, 0.1, overrides.Temperature, 0.001)
	assert.Equal(t, 800, overrides.MaxResponseTokens)
}

func TestExtract_MetadataSelectorsFillModelGaps(t *testing.T) {
	page := `<html><body><main class="job-details">
		<h1>Backend Developer</h1>
		<p>A long enough description of the assignment to survive filtering, covering scope and duration.</p>
		<span class="application-deadline">2026-09-30</span>
		<span class="job-reference">EM-1234</span>
	</main></body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://portal.emagine.org/jobs/2": page,
	}}
	model := &stubModel{result: &models.ExtractedAssignment{Title: "Backend Developer"}}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	extracted, err := e.Extract(context.Background(), "emagine", "https://portal.emagine.org/jobs/2")
	require.NoError(t, err)

	assert.Equal(t, "2026-09-30", extracted.ApplicationDeadline)
	assert.Equal(t, "EM-1234", extracted.ExternalID)
}

func TestExtract_MetadataSelectorsDoNotOverwriteModelValues(t *testing.T) {
	page := `<html><body><main class="job-details">
		<p>A long enough description of the assignment to survive filtering, covering scope and duration.</p>
		<span class="application-deadline">2026-09-30</span>
	</main></body></html>`
	fetcher := &stubFetcher{pages: map[string]string{
		"https://portal.emagine.org/jobs/3": page,
	}}
	model := &stubModel{result: &models.ExtractedAssignment{ApplicationDeadline: "2026-10-15"}}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	extracted, err := e.Extract(context.Background(), "emagine", "https://portal.emagine.org/jobs/3")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-15", extracted.ApplicationDeadline)
}

func TestExtractBatch_SkipsFailures(t *testing.T) {
	fetcher := &stubFetcher{
		pages: map[string]string{
			"https://example.com/a/1": detailPage("First"),
			"https://example.com/a/3": detailPage("Third"),
		},
		fails: map[string]bool{"https://example.com/a/2": true},
	}
	model := &stubModel{}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	results := e.ExtractBatch(context.Background(), "test", []string{
		"https://example.com/a/1",
		"https://example.com/a/2",
		"https://example.com/a/3",
	})

	require.Len(t, results, 2)
	assert.Equal(t, "Extracted from https://example.com/a/1", results[0].Title)
	assert.Equal(t, "Extracted from https://example.com/a/3", results[1].Title)
}

func TestExtractBatch_CancelledContext(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]string{}}
	model := &stubModel{}
	e := NewStructuredExtractor(fetcher, model, testExtractorConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.ExtractBatch(ctx, "test", []string{"https://example.com/a/1"})
	assert.Empty(t, results)
}

func TestCourtesyWait_RespectsCancellation(t *testing.T) {
	cfg := testExtractorConfig()
	cfg.Crawler.CourtesyDelay = time.Minute
	e := NewStructuredExtractor(&stubFetcher{}, &stubModel{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := e.CourtesyWait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
