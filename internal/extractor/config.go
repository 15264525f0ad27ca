package extractor

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"uppdragsradarn-crawler/internal/logging"
)

//go:embed configs/*.yaml
var configFiles embed.FS

// ExtractionConfig controls how a provider's detail pages are filtered and
// extracted. Configs are embedded YAML files keyed by provider id; providers
// without a file get a permissive default.
type ExtractionConfig struct {
	ProviderID        string              `yaml:"provider_id"`
	BaseURL           string              `yaml:"base_url"`
	ContentFilter     *ContentFilterRules `yaml:"content_filter"`
	LLM               *LLMRules           `yaml:"llm"`
	MetadataSelectors map[string]string   `yaml:"metadata_selectors"`
}

// ContentFilterRules specifies how page HTML is reduced before extraction
type ContentFilterRules struct {
	ContentSelector  string   `yaml:"content_selector"`
	ExcludeSelectors []string `yaml:"exclude_selectors"`
	RemoveTags       []string `yaml:"remove_tags"`
	MaxTokens        int      `yaml:"max_tokens"`
	UseReadability   bool     `yaml:"use_readability"`
}

// LLMRules specifies per-provider extraction model overrides
type LLMRules struct {
	Model              string  `yaml:"model"`
	Temperature        float64 `yaml:"temperature"`
	MaxResponseTokens  int     `yaml:"max_response_tokens"`
	CustomInstructions string  `yaml:"custom_instructions"`
}

// LoadExtractionConfig loads the embedded config for a provider id, falling
// back to the default config when none exists or it cannot be parsed.
func LoadExtractionConfig(providerID string) *ExtractionConfig {
	logger := logging.GetGlobalLogger()

	data, err := configFiles.ReadFile(fmt.Sprintf("configs/%s.yaml", providerID))
	if err != nil {
		logger.Debug("No extraction config for provider, using default", map[string]interface{}{
			"provider": providerID,
		})
		return defaultExtractionConfig(providerID)
	}

	var cfg ExtractionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Warn("Failed to parse extraction config, using default", map[string]interface{}{
			"provider": providerID,
			"error":    err.Error(),
		})
		return defaultExtractionConfig(providerID)
	}

	if cfg.ProviderID == "" {
		cfg.ProviderID = providerID
	}
	if cfg.ContentFilter == nil {
		cfg.ContentFilter = defaultExtractionConfig(providerID).ContentFilter
	}
	if cfg.ContentFilter.MaxTokens <= 0 {
		cfg.ContentFilter.MaxTokens = 2000
	}
	return &cfg
}

func defaultExtractionConfig(providerID string) *ExtractionConfig {
	return &ExtractionConfig{
		ProviderID: providerID,
		ContentFilter: &ContentFilterRules{
			ContentSelector: "main, .content, .job-content, body",
			ExcludeSelectors: []string{
				"nav", "header", "footer",
				".navigation", ".sidebar", ".ads",
				"script", "style", ".cookie", ".social",
			},
			RemoveTags:     []string{"script", "style", "noscript", "svg"},
			MaxTokens:      2000,
			UseReadability: true,
		},
		LLM: &LLMRules{
			Temperature:       0.1,
			MaxResponseTokens: 800,
		},
	}
}
