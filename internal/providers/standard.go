package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
	"uppdragsradarn-crawler/pkg/utils"
)

// Configuration keys shared by selector-driven sources.
const (
	configListURL             = "listUrl"
	configJobSelector         = "jobSelector"
	configTitleSelector       = "titleSelector"
	configLinkSelector        = "linkSelector"
	configCompanySelector     = "companySelector"
	configLocationSelector    = "locationSelector"
	configDescriptionSelector = "descriptionSelector"
	configDeadlineSelector    = "deadlineSelector"
	configRateSelector        = "rateSelector"
	configSkillsSelector      = "skillsSelector"
	configPaginationSelector  = "paginationSelector"
	configMaxPages            = "maxPages"
	configDetailRequired      = "detailRequired"
)

// PageFetcher retrieves a page body for a URL
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StandardProvider crawls job sites that follow common listing patterns.
// All site knowledge lives in the source's selector configuration.
type StandardProvider struct {
	fetcher PageFetcher
	logger  logging.Logger
}

// NewStandardProvider creates a selector-driven provider
func NewStandardProvider(fetcher PageFetcher) *StandardProvider {
	return &StandardProvider{
		fetcher: fetcher,
		logger:  logging.GetGlobalLogger(),
	}
}

func (p *StandardProvider) Name() string {
	return "Standard Job Site Provider"
}

// Supports matches web scraper sources carrying the minimum selector config
func (p *StandardProvider) Supports(source *models.Source) bool {
	return source.SourceType == models.SourceTypeWebScraper &&
		source.ConfigValue(configListURL) != "" &&
		source.ConfigValue(configJobSelector) != ""
}

// FetchAssignments crawls the configured listing pages. A failure on the
// first page fails the crawl; failures on later pages return what was
// collected so far.
func (p *StandardProvider) FetchAssignments(ctx context.Context, source *models.Source) ([]*models.Assignment, error) {
	listURL := source.ConfigValue(configListURL)

	maxPages := 1
	if v := source.ConfigValue(configMaxPages); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxPages = n
		}
	}

	var assignments []*models.Assignment
	for page := 1; page <= maxPages; page++ {
		pageURL := buildPageURL(listURL, page)
		p.logger.Info("Fetching listing page", map[string]interface{}{
			"source": source.Name,
			"page":   page,
			"url":    pageURL,
		})

		body, err := p.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to fetch first listing page: %w", err)
			}
			p.logger.Warn("Stopping pagination after fetch failure", map[string]interface{}{
				"source": source.Name,
				"page":   page,
				"error":  err.Error(),
			})
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to parse first listing page: %w", err)
			}
			break
		}

		assignments = append(assignments, p.extractFromPage(ctx, doc, source)...)

		if !hasNextPage(doc, source.ConfigValue(configPaginationSelector)) {
			break
		}
	}

	p.logger.Info("Extracted assignments from listing", map[string]interface{}{
		"source": source.Name,
		"count":  len(assignments),
	})
	return assignments, nil
}

func (p *StandardProvider) extractFromPage(ctx context.Context, doc *goquery.Document, source *models.Source) []*models.Assignment {
	detailRequired := source.ConfigValue(configDetailRequired) == "true"

	var assignments []*models.Assignment
	doc.Find(source.ConfigValue(configJobSelector)).Each(func(_ int, item *goquery.Selection) {
		assignment, err := p.extractFromItem(item, source)
		if err != nil {
			p.logger.Warn("Skipping listing item", map[string]interface{}{
				"source": source.Name,
				"error":  err.Error(),
			})
			return
		}

		if detailRequired && assignment.ApplicationURL != "" {
			p.enrichFromDetail(ctx, assignment, source)
		}

		assignments = append(assignments, assignment)
	})
	return assignments
}

func (p *StandardProvider) extractFromItem(item *goquery.Selection, source *models.Source) (*models.Assignment, error) {
	title := selectText(item, source.ConfigValue(configTitleSelector))
	if title == "" {
		return nil, fmt.Errorf("no title found for listing item")
	}

	assignment := &models.Assignment{
		SourceID:    source.ID,
		Title:       title,
		CompanyName: source.Name,
		Active:      true,
	}

	if link := selectHref(item, source.ConfigValue(configLinkSelector)); link != "" {
		assignment.ApplicationURL = normalizeURL(link, source.BaseURL)
		assignment.ExternalID = utils.ExternalIDFromURL(assignment.ApplicationURL)
	} else {
		assignment.ExternalID = utils.ExternalIDFromURL(title)
	}

	if company := selectText(item, source.ConfigValue(configCompanySelector)); company != "" {
		assignment.CompanyName = company
	}

	assignment.LocationText = selectText(item, source.ConfigValue(configLocationSelector))
	if assignment.LocationText == "" {
		assignment.LocationText = "Sweden"
	}

	assignment.Description = selectText(item, source.ConfigValue(configDescriptionSelector))

	if deadline := selectText(item, source.ConfigValue(configDeadlineSelector)); deadline != "" {
		assignment.ApplicationDeadline = parseDate(deadline)
	}

	if rate := selectText(item, source.ConfigValue(configRateSelector)); rate != "" {
		parseRate(assignment, rate)
	}

	if selector := source.ConfigValue(configSkillsSelector); selector != "" {
		assignment.Skills = selectTexts(item, selector)
	}

	return assignment, nil
}

// enrichFromDetail pulls better description, rate and skills from the item's
// detail page when ".detail" suffixed selectors are configured. Detail
// failures leave the listing data in place.
func (p *StandardProvider) enrichFromDetail(ctx context.Context, assignment *models.Assignment, source *models.Source) {
	body, err := p.fetcher.Fetch(ctx, assignment.ApplicationURL)
	if err != nil {
		p.logger.Warn("Failed to fetch detail page", map[string]interface{}{
			"source": source.Name,
			"url":    assignment.ApplicationURL,
			"error":  err.Error(),
		})
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return
	}
	detail := doc.Selection

	if selector := source.ConfigValue(configDescriptionSelector + ".detail"); selector != "" {
		if desc := selectText(detail, selector); desc != "" {
			assignment.Description = desc
		}
	}
	if selector := source.ConfigValue(configRateSelector + ".detail"); selector != "" {
		if rate := selectText(detail, selector); rate != "" {
			parseRate(assignment, rate)
		}
	}
	if selector := source.ConfigValue(configSkillsSelector + ".detail"); selector != "" {
		if skills := selectTexts(detail, selector); len(skills) > 0 {
			assignment.Skills = skills
		}
	}
}

func buildPageURL(listURL string, page int) string {
	if page == 1 {
		return listURL
	}
	if strings.Contains(listURL, "?") {
		return fmt.Sprintf("%s&page=%d", listURL, page)
	}
	return fmt.Sprintf("%s?page=%d", listURL, page)
}

func hasNextPage(doc *goquery.Document, paginationSelector string) bool {
	if paginationSelector == "" {
		return false
	}
	return doc.Find(paginationSelector).Length() > 0
}

func selectText(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

func selectHref(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().AttrOr("href", ""))
}

func selectTexts(sel *goquery.Selection, selector string) []string {
	var out []string
	seen := make(map[string]bool)
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" && !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	})
	return out
}
