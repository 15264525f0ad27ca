package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
)

func testProvider() *ClaudeProvider {
	return &ClaudeProvider{
		config: &config.Config{},
		logger: logging.GetGlobalLogger(),
	}
}

func TestResolveModelParams_OverridesBeatDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Model = "claude-3-haiku-20240307"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.3
	cp := &ClaudeProvider{config: cfg, logger: logging.GetGlobalLogger()}

	model, maxTokens, temperature, instructions := cp.resolveModelParams(&models.ModelOverrides{
		Temperature:        0.1,
		MaxResponseTokens:  800,
		CustomInstructions: "Rates on this site are per day.",
	})

	assert.Equal(t, "claude-3-haiku-20240307", model)
	assert.Equal(t, 800, maxTokens)
	assert.InDelta(t, 0.1, temperature, 0.001)
	assert.Equal(t, "Rates on this site are per day.", instructions)
}

func TestResolveModelParams_NilOverridesKeepDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Model = "claude-3-haiku-20240307"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.3
	cp := &ClaudeProvider{config: cfg, logger: logging.GetGlobalLogger()}

	model, maxTokens, temperature, instructions := cp.resolveModelParams(nil)

	assert.Equal(t, "claude-3-haiku-20240307", model)
	assert.Equal(t, 2000, maxTokens)
	assert.InDelta(t, 0.3, temperature, 0.001)
	assert.Empty(t, instructions)
}

func TestBuildExtractionPrompt_IncludesCustomInstructions(t *testing.T) {
	cp := testProvider()

	prompt := cp.buildExtractionPrompt("content", "https://example.com/a/1", "Rates on this site are per day.")
	assert.Contains(t, prompt, "SOURCE-SPECIFIC INSTRUCTIONS")
	assert.Contains(t, prompt, "Rates on this site are per day.")

	bare := cp.buildExtractionPrompt("content", "https://example.com/a/1", "")
	assert.NotContains(t, bare, "SOURCE-SPECIFIC INSTRUCTIONS")
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}

func TestParseExtractedText_ValidJSON(t *testing.T) {
	cp := testProvider()

	extracted := cp.parseExtractedText(`{
		"title": "Senior Go Developer",
		"companyName": "Acme Consulting",
		"location": "Stockholm",
		"hourlyRateMin": 900,
		"hourlyRateMax": 1100,
		"currency": "SEK",
		"skills": ["Go", "PostgreSQL"]
	}`, "https://example.com/assignment/1")

	require.NotNil(t, extracted)
	assert.Equal(t, "Senior Go Developer", extracted.Title)
	assert.Equal(t, "Acme Consulting", extracted.CompanyName)
	require.NotNil(t, extracted.HourlyRateMin)
	assert.Equal(t, 900, *extracted.HourlyRateMin)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, extracted.Skills)
	assert.Equal(t, "https://example.com/assignment/1", extracted.ApplicationURL)
}

func TestParseExtractedText_MalformedJSONKeepsRawText(t *testing.T) {
	cp := testProvider()

	raw := "Sorry, I could not find a JSON structure here."
	extracted := cp.parseExtractedText(raw, "https://example.com/assignment/2")

	require.NotNil(t, extracted)
	assert.Equal(t, raw, extracted.Description)
	assert.Empty(t, extracted.Title)
	assert.Equal(t, "https://example.com/assignment/2", extracted.ApplicationURL)
}

func TestParseExtractedText_FencedJSON(t *testing.T) {
	cp := testProvider()

	extracted := cp.parseExtractedText("```json\n{\"title\": \"DevOps Engineer\"}\n```", "https://example.com/a/3")

	require.NotNil(t, extracted)
	assert.Equal(t, "DevOps Engineer", extracted.Title)
}
