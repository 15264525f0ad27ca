package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"uppdragsradarn-crawler/internal/extractor"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
	"uppdragsradarn-crawler/pkg/utils"
)

// Configuration keys for LLM-extracted sources.
const (
	configLLMListURL      = "listUrl"
	configLLMLinkSelector = "linkSelector"
	configLLMProviderID   = "providerId"
	configMaxAssignments  = "maxAssignments"
)

const defaultMaxAssignments = 50

// LLMSiteProvider handles sources whose detail pages are too irregular for
// selectors. It scrapes the listing for links, then extracts each detail
// page with the LLM pipeline, pausing between pages.
type LLMSiteProvider struct {
	fetcher   PageFetcher
	extractor *extractor.StructuredExtractor
	logger    logging.Logger
}

// NewLLMSiteProvider creates an LLM-backed provider
func NewLLMSiteProvider(fetcher PageFetcher, ex *extractor.StructuredExtractor) *LLMSiteProvider {
	return &LLMSiteProvider{
		fetcher:   fetcher,
		extractor: ex,
		logger:    logging.GetGlobalLogger(),
	}
}

func (p *LLMSiteProvider) Name() string {
	return "LLM Site Provider"
}

func (p *LLMSiteProvider) Supports(source *models.Source) bool {
	return source.SourceType == models.SourceTypeLLMScraper &&
		source.ConfigValue(configLLMListURL) != "" &&
		source.ConfigValue(configLLMLinkSelector) != ""
}

func (p *LLMSiteProvider) FetchAssignments(ctx context.Context, source *models.Source) ([]*models.Assignment, error) {
	urls, err := p.fetchListingURLs(ctx, source)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Found detail page links", map[string]interface{}{
		"source": source.Name,
		"count":  len(urls),
	})

	providerID := source.ConfigValue(configLLMProviderID)
	if providerID == "" {
		providerID = defaultProviderID(source.Name)
	}

	maxAssignments := defaultMaxAssignments
	if v := source.ConfigValue(configMaxAssignments); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxAssignments = n
		}
	}

	var assignments []*models.Assignment
	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return assignments, err
		}

		extracted, err := p.extractor.Extract(ctx, providerID, pageURL)
		if err != nil {
			p.logger.Warn("Failed to extract detail page", map[string]interface{}{
				"source": source.Name,
				"url":    pageURL,
				"error":  err.Error(),
			})
			continue
		}

		assignments = append(assignments, assignmentFromExtracted(extracted, source, pageURL))

		if len(assignments) >= maxAssignments {
			p.logger.Info("Reached assignment limit, stopping", map[string]interface{}{
				"source": source.Name,
				"limit":  maxAssignments,
			})
			break
		}

		if err := p.extractor.CourtesyWait(ctx); err != nil {
			return assignments, err
		}
	}

	p.logger.Info("Extracted assignments with LLM pipeline", map[string]interface{}{
		"source": source.Name,
		"count":  len(assignments),
	})
	return assignments, nil
}

func defaultProviderID(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return "default"
	}
	return fields[0]
}

// fetchListingURLs scrapes the listing page for detail links, deduplicated
// in document order
func (p *LLMSiteProvider) fetchListingURLs(ctx context.Context, source *models.Source) ([]string, error) {
	body, err := p.fetcher.Fetch(ctx, source.ConfigValue(configLLMListURL))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var urls []string
	seen := make(map[string]bool)
	doc.Find(source.ConfigValue(configLLMLinkSelector)).Each(func(_ int, link *goquery.Selection) {
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}
		absolute := normalizeURL(href, source.BaseURL)
		if !seen[absolute] {
			seen[absolute] = true
			urls = append(urls, absolute)
		}
	})
	return urls, nil
}

// assignmentFromExtracted maps the model's output onto an assignment
// candidate, filling identity fields the model could not know
func assignmentFromExtracted(ex *models.ExtractedAssignment, source *models.Source, pageURL string) *models.Assignment {
	assignment := &models.Assignment{
		SourceID:         source.ID,
		Title:            ex.Title,
		Description:      ex.Description,
		CompanyName:      ex.CompanyName,
		LocationText:     ex.Location,
		HourlyRateMin:    ex.HourlyRateMin,
		HourlyRateMax:    ex.HourlyRateMax,
		Currency:         ex.Currency,
		DurationMonths:   ex.DurationMonths,
		HoursPerWeek:     ex.HoursPerWeek,
		Skills:           ex.Skills,
		WorkArrangement:  ex.WorkArrangement,
		RequirementLevel: ex.RequirementLevel,
		ApplicationURL:   utils.GetStringOrDefault(ex.ApplicationURL, pageURL),
		Active:           true,
	}

	if assignment.Title == "" {
		assignment.Title = "Untitled assignment"
	}
	if assignment.CompanyName == "" {
		assignment.CompanyName = source.Name
	}

	assignment.ExternalID = ex.ExternalID
	if assignment.ExternalID == "" {
		assignment.ExternalID = utils.ExternalIDFromURL(pageURL)
	}

	if ex.StartDate != "" {
		if t, err := time.Parse("2006-01-02", ex.StartDate); err == nil {
			assignment.StartDate = &t
		}
	}
	if ex.ApplicationDeadline != "" {
		if t, err := time.Parse("2006-01-02", ex.ApplicationDeadline); err == nil {
			assignment.ApplicationDeadline = &t
		}
	}

	return assignment
}
