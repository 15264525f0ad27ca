package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
	"uppdragsradarn-crawler/pkg/utils"
)

// Configuration keys for JSON API sources. Field keys name the JSON property
// that carries each assignment attribute; missing keys fall back to common
// defaults.
const (
	configAPIURL       = "apiUrl"
	configMethod       = "method"
	configRequestBody  = "requestBody"
	configContentType  = "contentType"
	configItemsPath    = "itemsPath"
	configTitleField   = "titleField"
	configIDField      = "idField"
	configCompanyField = "companyField"
	configDescField    = "descriptionField"
	configLocField     = "locationField"
	configSkillsField  = "skillsField"
	configStartField   = "startDateField"
	configRateField    = "rateField"
	configCurrField    = "currencyField"
	configURLField     = "applicationUrlField"
	configURLTemplate  = "urlTemplate"
)

// BodyFetcher performs an HTTP request with an explicit method and body
type BodyFetcher interface {
	PageFetcher
	FetchWithBody(ctx context.Context, method, url, contentType string, body []byte) ([]byte, error)
}

// JSONAPIProvider crawls sources that expose their listings as a JSON API
type JSONAPIProvider struct {
	fetcher BodyFetcher
	logger  logging.Logger
}

// NewJSONAPIProvider creates a JSON API provider
func NewJSONAPIProvider(fetcher BodyFetcher) *JSONAPIProvider {
	return &JSONAPIProvider{
		fetcher: fetcher,
		logger:  logging.GetGlobalLogger(),
	}
}

func (p *JSONAPIProvider) Name() string {
	return "JSON API Provider"
}

func (p *JSONAPIProvider) Supports(source *models.Source) bool {
	return source.SourceType == models.SourceTypeJSONAPI &&
		source.ConfigValue(configAPIURL) != ""
}

func (p *JSONAPIProvider) FetchAssignments(ctx context.Context, source *models.Source) ([]*models.Assignment, error) {
	apiURL := source.ConfigValue(configAPIURL)
	method := strings.ToUpper(utils.GetStringOrDefault(source.ConfigValue(configMethod), "GET"))

	var body []byte
	var err error
	if method == "GET" {
		body, err = p.fetcher.Fetch(ctx, apiURL)
	} else {
		contentType := utils.GetStringOrDefault(source.ConfigValue(configContentType), "application/json")
		body, err = p.fetcher.FetchWithBody(ctx, method, apiURL, contentType, []byte(source.ConfigValue(configRequestBody)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing API: %w", err)
	}

	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}

	items, err := itemsAt(root, source.ConfigValue(configItemsPath))
	if err != nil {
		return nil, err
	}

	var assignments []*models.Assignment
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		assignment, err := p.assignmentFromItem(item, source)
		if err != nil {
			p.logger.Warn("Skipping API item", map[string]interface{}{
				"source": source.Name,
				"error":  err.Error(),
			})
			continue
		}
		assignments = append(assignments, assignment)
	}

	p.logger.Info("Extracted assignments from API", map[string]interface{}{
		"source": source.Name,
		"count":  len(assignments),
	})
	return assignments, nil
}

func (p *JSONAPIProvider) assignmentFromItem(item map[string]interface{}, source *models.Source) (*models.Assignment, error) {
	title := stringField(item, utils.GetStringOrDefault(source.ConfigValue(configTitleField), "title"))
	if title == "" {
		return nil, fmt.Errorf("item has no title")
	}

	assignment := &models.Assignment{
		SourceID:    source.ID,
		Title:       title,
		CompanyName: source.Name,
		Active:      true,
	}

	assignment.ExternalID = stringField(item, utils.GetStringOrDefault(source.ConfigValue(configIDField), "id"))
	if assignment.ExternalID == "" {
		assignment.ExternalID = utils.ExternalIDFromURL(title)
	}

	if company := stringField(item, utils.GetStringOrDefault(source.ConfigValue(configCompanyField), "clientName")); company != "" {
		assignment.CompanyName = company
	}

	assignment.Description = stringField(item, utils.GetStringOrDefault(source.ConfigValue(configDescField), "description"))
	assignment.LocationText = locationField(item, utils.GetStringOrDefault(source.ConfigValue(configLocField), "location"))

	if skills := sliceField(item, utils.GetStringOrDefault(source.ConfigValue(configSkillsField), "skills")); len(skills) > 0 {
		assignment.Skills = skills
	}

	if start := stringField(item, utils.GetStringOrDefault(source.ConfigValue(configStartField), "startDate")); start != "" {
		assignment.StartDate = parseDate(start)
	}

	if rate := anyField(item, utils.GetStringOrDefault(source.ConfigValue(configRateField), "rate")); rate != "" {
		parseRate(assignment, rate)
	}
	if curr := stringField(item, utils.GetStringOrDefault(source.ConfigValue(configCurrField), "rateCurrency")); curr != "" {
		assignment.Currency = curr
	}

	if u := stringField(item, utils.GetStringOrDefault(source.ConfigValue(configURLField), "url")); u != "" {
		assignment.ApplicationURL = normalizeURL(u, source.BaseURL)
	} else if tmpl := source.ConfigValue(configURLTemplate); tmpl != "" {
		assignment.ApplicationURL = fmt.Sprintf(tmpl, assignment.ExternalID)
	}

	return assignment, nil
}

// itemsAt walks a dot-separated path through decoded JSON and returns the
// array found there. An empty path expects the root itself to be the array.
func itemsAt(root interface{}, path string) ([]interface{}, error) {
	node := root
	if path != "" {
		for _, key := range strings.Split(path, ".") {
			obj, ok := node.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("items path %q does not resolve to an object", path)
			}
			node = obj[key]
		}
	}
	items, ok := node.([]interface{})
	if !ok {
		return nil, fmt.Errorf("items path %q does not resolve to an array", path)
	}
	return items, nil
}

func stringField(item map[string]interface{}, key string) string {
	if v, ok := item[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// anyField renders strings and numbers alike, for fields such as rates that
// some APIs return as numbers
func anyField(item map[string]interface{}, key string) string {
	switch v := item[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.Itoa(int(v))
	}
	return ""
}

// locationField joins array-valued locations into the usual comma-separated
// form the normalizer splits on
func locationField(item map[string]interface{}, key string) string {
	switch v := item[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []interface{}:
		var parts []string
		for _, entry := range v {
			if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func sliceField(item map[string]interface{}, key string) []string {
	arr, ok := item[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, entry := range arr {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
