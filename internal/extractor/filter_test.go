package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterContent_RemovesChromeAndKeepsBody(t *testing.T) {
	f := NewContentFilter()
	cfg := defaultExtractionConfig("test")

	html := `<html><body>
		<nav>Home | Jobs | About</nav>
		<script>track();</script>
		<main class="job-content">
			<h1>Senior Backend Developer</h1>
			<p>We are looking for a senior backend developer for a 6 month assignment in Stockholm working with Go and PostgreSQL in a large retail platform team.</p>
			<p>You will design and operate APIs together with ten other engineers and take part in on-call rotation every sixth week.</p>
		</main>
		<footer>Copyright</footer>
	</body></html>`

	content := f.FilterContent(html, cfg)

	assert.Contains(t, content, "Senior Backend Developer")
	assert.Contains(t, content, "senior backend developer")
	assert.NotContains(t, content, "track()")
	assert.NotContains(t, content, "Home | Jobs")
	assert.NotContains(t, content, "Copyright")
}

func TestFilterContent_EmptyInput(t *testing.T) {
	f := NewContentFilter()
	assert.Equal(t, "", f.FilterContent("", defaultExtractionConfig("test")))
}

func TestFilterContent_NoFilterRules(t *testing.T) {
	f := NewContentFilter()
	cfg := &ExtractionConfig{ProviderID: "bare"}

	out := f.FilterContent("<p>short</p>", cfg)
	assert.NotEmpty(t, out)
}

func TestReadabilityScore(t *testing.T) {
	f := NewContentFilter()
	cfg := defaultExtractionConfig("test")

	// The link-heavy block should lose to the paragraph-rich article block.
	html := `<html><body><main>
		<div class="links"><a href="/a">a</a><a href="/b">b</a><a href="/c">c</a>nav nav nav</div>
		<div class="job-description">
			<p>` + strings.Repeat("Relevant assignment text about the actual role. ", 10) + `</p>
			<p>More details about requirements and the team setup for this engagement.</p>
		</div>
	</main></body></html>`

	content := f.FilterContent(html, cfg)
	assert.Contains(t, content, "Relevant assignment text")
	assert.NotContains(t, content, "nav nav nav")
}

func TestTruncateToTokenLimit_WordBoundary(t *testing.T) {
	f := NewContentFilter()

	text := strings.Repeat("word ", 200)
	truncated := f.truncateToTokenLimit(text, 50)

	assert.LessOrEqual(t, len(truncated), 50*4+3)
	assert.True(t, strings.HasSuffix(truncated, "..."))
	// Truncation lands on a word boundary, not inside a word.
	trimmed := strings.TrimSuffix(truncated, "...")
	assert.True(t, strings.HasSuffix(trimmed, "word"))
}

func TestTruncateToTokenLimit_ShortTextUntouched(t *testing.T) {
	f := NewContentFilter()
	assert.Equal(t, "short text", f.truncateToTokenLimit("short text", 2000))
}

func TestEstimateTokenCount(t *testing.T) {
	f := NewContentFilter()
	assert.Equal(t, 0, f.EstimateTokenCount(""))
	assert.Equal(t, 25, f.EstimateTokenCount(strings.Repeat("a", 100)))
}

func TestLoadExtractionConfig_EmbeddedAndDefault(t *testing.T) {
	cfg := LoadExtractionConfig("emagine")
	assert.Equal(t, "emagine", cfg.ProviderID)
	assert.NotNil(t, cfg.ContentFilter)
	assert.True(t, cfg.ContentFilter.UseReadability)

	def := LoadExtractionConfig("unknown-provider")
	assert.Equal(t, "unknown-provider", def.ProviderID)
	assert.Equal(t, 2000, def.ContentFilter.MaxTokens)
}
