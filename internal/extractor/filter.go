package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uppdragsradarn-crawler/internal/logging"
)

var (
	multiNewlineRegex   = regexp.MustCompile(`\n{3,}`)
	whitespaceCollapser = regexp.MustCompile(`\s+`)
)

// ContentFilter reduces raw detail-page HTML to clean text sized for the
// extraction model. Filtering never fails; on parse errors it falls back to
// stripped, truncated raw content.
type ContentFilter struct {
	logger logging.Logger
}

// NewContentFilter creates a new content filter
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		logger: logging.GetGlobalLogger(),
	}
}

// FilterContent filters HTML content according to the provider configuration
func (f *ContentFilter) FilterContent(htmlContent string, cfg *ExtractionConfig) string {
	if htmlContent == "" {
		return ""
	}

	rules := cfg.ContentFilter
	if rules == nil {
		f.logger.Warn("No content filter rules provided, returning raw content")
		return f.truncateToTokenLimit(htmlContent, 2000)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		f.logger.Error("Failed to parse HTML, falling back to stripped content", map[string]interface{}{
			"error": err.Error(),
		})
		return f.truncateToTokenLimit(stripBasicHTML(htmlContent), rules.MaxTokens)
	}

	for _, tag := range rules.RemoveTags {
		doc.Find(tag).Remove()
	}

	content := f.extractMainContent(doc, rules.ContentSelector)

	for _, selector := range rules.ExcludeSelectors {
		content.Find(selector).Remove()
	}

	if rules.UseReadability {
		content = f.applyReadability(content)
	}

	cleanContent := f.convertToCleanText(content)
	cleanContent = f.truncateToTokenLimit(cleanContent, rules.MaxTokens)

	f.logger.Debug("Filtered content", map[string]interface{}{
		"raw_length":      len(htmlContent),
		"filtered_length": len(cleanContent),
	})

	return cleanContent
}

// EstimateTokenCount estimates token count for the given text. Rough
// approximation of 4 characters per token for English and Swedish text.
func (f *ContentFilter) EstimateTokenCount(text string) int {
	return len(text) / 4
}

func (f *ContentFilter) extractMainContent(doc *goquery.Document, contentSelector string) *goquery.Selection {
	if contentSelector == "" {
		return doc.Find("body")
	}

	selection := doc.Find(contentSelector)
	if selection.Length() == 0 {
		f.logger.Warn("No content found with selector, falling back to body", map[string]interface{}{
			"selector": contentSelector,
		})
		return doc.Find("body")
	}
	return selection.First()
}

// applyReadability picks the densest text block among candidate containers.
// Inspired by Mozilla's Readability scoring.
func (f *ContentFilter) applyReadability(content *goquery.Selection) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0

	content.Find("div, article, section, main, p").Each(func(_ int, candidate *goquery.Selection) {
		score := readabilityScore(candidate)
		if score > bestScore {
			bestScore = score
			best = candidate
		}
	})

	if best == nil {
		return content
	}
	return best
}

func readabilityScore(sel *goquery.Selection) int {
	text := sel.Text()
	textLength := len(text)

	score := textLength / 25
	score += sel.Find("p").Length() * 25
	score -= sel.Find("a").Length() * 25

	if textLength < 100 {
		score -= 50
	}

	className := strings.ToLower(sel.AttrOr("class", ""))
	if strings.Contains(className, "content") ||
		strings.Contains(className, "article") ||
		strings.Contains(className, "job") {
		score += 100
	}

	if score < 0 {
		return 0
	}
	return score
}

// convertToCleanText flattens the selection into a text format that keeps
// headings and paragraph structure
func (f *ContentFilter) convertToCleanText(content *goquery.Selection) string {
	var b strings.Builder

	content.Find("h1, h2, h3, .title, .job-title").Each(func(_ int, title *goquery.Selection) {
		b.WriteString("# ")
		b.WriteString(strings.TrimSpace(title.Text()))
		b.WriteString("\n\n")
	})

	content.Find("p, div, li").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) > 10 {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	})

	return strings.TrimSpace(multiNewlineRegex.ReplaceAllString(b.String(), "\n\n"))
}

func stripBasicHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(whitespaceCollapser.ReplaceAllString(html, " "))
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(whitespaceCollapser.ReplaceAllString(doc.Text(), " "))
}

func (f *ContentFilter) truncateToTokenLimit(text string, maxTokens int) string {
	if f.EstimateTokenCount(text) <= maxTokens {
		return text
	}

	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxChars*8/10 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}
