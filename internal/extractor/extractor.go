// Package extractor turns detail-page HTML into structured assignment
// candidates. Pages are filtered per provider configuration before being
// handed to the extraction model.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
)

// PageFetcher retrieves a page body for a URL
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ModelClient extracts a structured assignment from cleaned content.
// Overrides may be nil, in which case the model's global defaults apply.
type ModelClient interface {
	ExtractAssignment(ctx context.Context, content, sourceURL string, overrides *models.ModelOverrides) (*models.ExtractedAssignment, error)
}

// StructuredExtractor runs the fetch, filter, extract pipeline for one page
// at a time and batches of pages concurrently.
type StructuredExtractor struct {
	fetcher       PageFetcher
	model         ModelClient
	filter        *ContentFilter
	courtesyDelay time.Duration
	batchWorkers  int
	logger        logging.Logger
}

// NewStructuredExtractor creates an extractor wired to a fetcher and model
func NewStructuredExtractor(fetcher PageFetcher, model ModelClient, cfg *config.Config) *StructuredExtractor {
	workers := cfg.Workers.BatchWorkers
	if workers <= 0 {
		workers = 3
	}
	return &StructuredExtractor{
		fetcher:       fetcher,
		model:         model,
		filter:        NewContentFilter(),
		courtesyDelay: cfg.Crawler.CourtesyDelay,
		batchWorkers:  workers,
		logger:        logging.GetGlobalLogger(),
	}
}

// Extract fetches one detail page and extracts an assignment candidate from it
func (e *StructuredExtractor) Extract(ctx context.Context, providerID, pageURL string) (*models.ExtractedAssignment, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail page %s: %w", pageURL, err)
	}

	extractionCfg := LoadExtractionConfig(providerID)
	content := e.filter.FilterContent(string(body), extractionCfg)
	if content == "" {
		return nil, fmt.Errorf("no content left after filtering %s", pageURL)
	}

	extracted, err := e.model.ExtractAssignment(ctx, content, pageURL, modelOverrides(extractionCfg))
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", pageURL, err)
	}

	e.applyMetadataSelectors(body, extractionCfg.MetadataSelectors, extracted)
	return extracted, nil
}

// modelOverrides maps a provider's LLM rules onto model call overrides
func modelOverrides(cfg *ExtractionConfig) *models.ModelOverrides {
	if cfg == nil || cfg.LLM == nil {
		return nil
	}
	return &models.ModelOverrides{
		Model:              cfg.LLM.Model,
		Temperature:        cfg.LLM.Temperature,
		MaxResponseTokens:  cfg.LLM.MaxResponseTokens,
		CustomInstructions: cfg.LLM.CustomInstructions,
	}
}

// applyMetadataSelectors fills gaps the model left with values scraped
// straight off the page. Selectors are per-provider, keyed by field.
func (e *StructuredExtractor) applyMetadataSelectors(body []byte, selectors map[string]string, extracted *models.ExtractedAssignment) {
	if len(selectors) == 0 {
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("Failed to parse page for metadata selectors", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for field, selector := range selectors {
		value := strings.TrimSpace(doc.Find(selector).First().Text())
		if value == "" {
			continue
		}
		switch field {
		case "deadline":
			if extracted.ApplicationDeadline == "" {
				extracted.ApplicationDeadline = value
			}
		case "reference":
			if extracted.ExternalID == "" {
				extracted.ExternalID = value
			}
		case "start_date":
			if extracted.StartDate == "" {
				extracted.StartDate = value
			}
		default:
			e.logger.Warn("Unknown metadata selector field", map[string]interface{}{
				"field": field,
			})
		}
	}
}

// ExtractBatch extracts a set of detail pages concurrently. Failed pages are
// logged and skipped; the result carries successes only, in input order.
func (e *StructuredExtractor) ExtractBatch(ctx context.Context, providerID string, pageURLs []string) []*models.ExtractedAssignment {
	results := make([]*models.ExtractedAssignment, len(pageURLs))
	sem := make(chan struct{}, e.batchWorkers)
	var wg sync.WaitGroup

loop:
	for i, pageURL := range pageURLs {
		if ctx.Err() != nil {
			e.logger.Warn("Batch extraction cancelled", map[string]interface{}{
				"provider":  providerID,
				"remaining": len(pageURLs) - i,
			})
			break
		}
		select {
		case <-ctx.Done():
			e.logger.Warn("Batch extraction cancelled", map[string]interface{}{
				"provider":  providerID,
				"remaining": len(pageURLs) - i,
			})
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			defer func() { <-sem }()

			extracted, err := e.Extract(ctx, providerID, u)
			if err != nil {
				e.logger.Warn("Skipping page after extraction failure", map[string]interface{}{
					"provider": providerID,
					"url":      u,
					"error":    err.Error(),
				})
				return
			}
			results[idx] = extracted
		}(i, pageURL)
	}

	wg.Wait()

	out := make([]*models.ExtractedAssignment, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// CourtesyWait pauses between sequential detail-page requests to the same
// site. Returns early with the context error on cancellation.
func (e *StructuredExtractor) CourtesyWait(ctx context.Context) error {
	if e.courtesyDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(e.courtesyDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
