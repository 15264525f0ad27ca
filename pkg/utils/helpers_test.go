package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExternalIDFromURL(t *testing.T) {
	assert.Equal(t, "senior-go-developer-4711", ExternalIDFromURL("https://example.se/jobs/senior-go-developer-4711"))
	assert.Equal(t, "4711", ExternalIDFromURL("https://example.se/jobs/4711/"))

	// No usable path segment falls back to a URL hash.
	hashed := ExternalIDFromURL("https://example.se/")
	assert.Contains(t, hashed, "url-")

	// Same URL always derives the same id.
	assert.Equal(t, hashed, ExternalIDFromURL("https://example.se/"))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.se", ExtractDomain("https://Example.se/jobs?page=2"))
	assert.Equal(t, "unknown", ExtractDomain("::not-a-url"))
}

func TestDedupeFold(t *testing.T) {
	assert.Equal(t, []string{"Go", "Kubernetes"}, DedupeFold([]string{"Go", "go", "Kubernetes", " GO "}))
	assert.Empty(t, DedupeFold(nil))
	assert.Equal(t, []string{"Java"}, DedupeFold([]string{"Java"}))
}
