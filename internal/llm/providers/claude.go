package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
)

// ClaudeProvider implements the LLM provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client anthropic.Client
	config *config.Config
	logger logging.Logger
}

// NewClaudeProvider creates a new Claude provider instance
func NewClaudeProvider(cfg *config.Config) *ClaudeProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	return &ClaudeProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// ExtractAssignment processes cleaned page content and extracts a structured
// assignment using Claude
func (cp *ClaudeProvider) ExtractAssignment(ctx context.Context, content, sourceURL string, overrides *models.ModelOverrides) (*models.ExtractedAssignment, error) {
	startTime := time.Now()

	model, maxTokens, temperature, instructions := cp.resolveModelParams(overrides)

	cp.logger.Info("Starting assignment extraction with Claude", map[string]interface{}{
		"url":            sourceURL,
		"content_length": len(content),
		"model":          model,
		"provider":       "claude",
	})

	prompt := cp.buildExtractionPrompt(content, sourceURL, instructions)

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	extracted := cp.parseClaudeResponse(response, sourceURL)

	cp.logger.Info("Assignment extraction completed", map[string]interface{}{
		"url":             sourceURL,
		"title":           extracted.Title,
		"company":         extracted.CompanyName,
		"processing_time": time.Since(startTime).String(),
		"provider":        "claude",
	})

	return extracted, nil
}

// resolveModelParams merges per-source overrides onto the configured defaults
func (cp *ClaudeProvider) resolveModelParams(overrides *models.ModelOverrides) (model string, maxTokens int, temperature float64, instructions string) {
	model = cp.config.LLM.Model
	maxTokens = cp.config.LLM.MaxTokens
	temperature = float64(cp.config.LLM.Temperature)

	if overrides != nil {
		if overrides.Model != "" {
			model = overrides.Model
		}
		if overrides.MaxResponseTokens > 0 {
			maxTokens = overrides.MaxResponseTokens
		}
		if overrides.Temperature > 0 {
			temperature = overrides.Temperature
		}
		instructions = overrides.CustomInstructions
	}
	return model, maxTokens, temperature, instructions
}

// buildExtractionPrompt creates the prompt for Claude to extract assignment data
func (cp *ClaudeProvider) buildExtractionPrompt(content, sourceURL, instructions string) string {
	if instructions != "" {
		instructions = "\n\nSOURCE-SPECIFIC INSTRUCTIONS:\n" + instructions
	}
	return fmt.Sprintf(`You are a consulting assignment analyzer. Extract structured information about a consulting assignment (contract position) from the provided content and return it as a JSON object.

The content below is from an assignment listing webpage, possibly in Swedish or English. Extract the following information and return it as a valid JSON object with exactly these fields:

{
  "title": "string - The assignment title",
  "description": "string - The assignment description",
  "companyName": "string - The client or broker company name",
  "location": "string - The location exactly as written (city, region, or 'Remote')",
  "hourlyRateMin": number or null - Minimum hourly rate as integer,
  "hourlyRateMax": number or null - Maximum hourly rate as integer,
  "currency": "string - Currency code such as SEK or EUR, empty if not stated",
  "durationMonths": number or null - Assignment duration in months,
  "hoursPerWeek": number or null - Expected hours per week,
  "startDate": "string - Start date in YYYY-MM-DD format, empty if not stated",
  "applicationDeadline": "string - Application deadline in YYYY-MM-DD format, empty if not stated",
  "skills": ["array of strings - Required skills and technologies"],
  "workArrangement": "string - One of ONSITE, HYBRID, REMOTE, empty if unclear",
  "requirementLevel": "string - Seniority level such as Junior, Senior, Expert, empty if not stated",
  "applicationUrl": "string - URL to apply, use the source URL (%s) if none is stated",
  "externalId": "string - The listing's own identifier if one is visible, otherwise empty"
}

IMPORTANT RULES:
1. Return ONLY valid JSON, no additional text or explanation
2. Use null for unknown numbers and empty string "" for unknown strings
3. Do not invent values that are not present in the content
4. Rates given per day should be converted to hourly assuming an 8 hour day
5. Keep the description in its original language
6. If the content does not describe a consulting assignment, return the structure with empty values%s

ASSIGNMENT CONTENT:
%s`, sourceURL, instructions, content)
}

// parseClaudeResponse parses the Claude API response. A response that is not
// valid JSON still yields a partial assignment carrying the raw text as
// description so the pipeline can persist what it got.
func (cp *ClaudeProvider) parseClaudeResponse(response *anthropic.Message, sourceURL string) *models.ExtractedAssignment {
	var responseText string
	for _, content := range response.Content {
		textContent := content.AsText()
		responseText = textContent.Text
		break
	}

	return cp.parseExtractedText(responseText, sourceURL)
}

// parseExtractedText decodes the model's JSON output into an assignment
func (cp *ClaudeProvider) parseExtractedText(responseText, sourceURL string) *models.ExtractedAssignment {
	responseText = stripCodeFences(responseText)

	var extracted models.ExtractedAssignment
	if err := json.Unmarshal([]byte(responseText), &extracted); err != nil {
		cp.logger.Warn("Claude returned malformed JSON, keeping raw text", map[string]interface{}{
			"url":   sourceURL,
			"error": err.Error(),
		})
		return &models.ExtractedAssignment{
			Description:    responseText,
			ApplicationURL: sourceURL,
		}
	}

	if extracted.ApplicationURL == "" {
		extracted.ApplicationURL = sourceURL
	}

	return &extracted
}

// stripCodeFences removes markdown code block wrappers the model sometimes
// adds around its JSON output
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text
}

// IsHealthy checks if the Claude provider is healthy and available
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.LLM.APIKey == "" {
		return fmt.Errorf("Claude API key not configured - set LLM_API_KEY environment variable")
	}

	_, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(cp.config.LLM.Model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: "Hello"},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})

	if err != nil {
		return fmt.Errorf("Claude API health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the LLM provider
func (cp *ClaudeProvider) GetProviderName() string {
	return "claude"
}
