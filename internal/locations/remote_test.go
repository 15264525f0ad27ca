package locations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	remote := []string{
		"Remote",
		"100% remote",
		"Stockholm, på distans",
		"Arbete hemifrån",
		"Work from home",
		"Remote-based position",
		"Distans",
	}
	for _, text := range remote {
		assert.True(t, IsRemote(text), "expected remote: %q", text)
	}

	onsite := []string{
		"",
		"Stockholm",
		"Göteborg, Sverige",
		"Malmö office",
	}
	for _, text := range onsite {
		assert.False(t, IsRemote(text), "expected on-site: %q", text)
	}
}

func TestRemoteDetector_ConfiguredKeywords(t *testing.T) {
	detector := NewRemoteDetector([]string{"hemmakontor", "valfri ort"})

	assert.True(t, detector.IsRemote("Hemmakontor möjligt"))
	assert.True(t, detector.IsRemote("Valfri ort i Sverige"))

	// The built-in pattern still catches standard wording.
	assert.True(t, detector.IsRemote("Remote"))
	assert.False(t, detector.IsRemote("Stockholm"))
}

func TestRemoteDetector_EmptyKeywordsFallBackToDefaults(t *testing.T) {
	detector := NewRemoteDetector(nil)

	assert.True(t, detector.IsRemote("100% remote"))
	assert.True(t, detector.IsRemote("Arbete hemifrån"))
	assert.False(t, detector.IsRemote("Malmö office"))
}

func TestExtractRemotePercentage(t *testing.T) {
	pct := ExtractRemotePercentage("Stockholm, 50% remote")
	require.NotNil(t, pct)
	assert.Equal(t, 50, *pct)

	pct = ExtractRemotePercentage("80 % distans")
	require.NotNil(t, pct)
	assert.Equal(t, 80, *pct)

	// Remote without an explicit percentage means fully remote.
	pct = ExtractRemotePercentage("Remote")
	require.NotNil(t, pct)
	assert.Equal(t, 100, *pct)

	assert.Nil(t, ExtractRemotePercentage("Stockholm"))
	assert.Nil(t, ExtractRemotePercentage(""))
}

func TestExtractRemotePercentage_OutOfRange(t *testing.T) {
	// 150% is invalid, but the text still reads as remote.
	pct := ExtractRemotePercentage("150% remote")
	require.NotNil(t, pct)
	assert.Equal(t, 100, *pct)
}
