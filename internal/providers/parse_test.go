package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uppdragsradarn-crawler/pkg/models"
)

func TestParseDate(t *testing.T) {
	d := parseDate("Apply before 2026-03-15!")
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *d)

	d = parseDate("Deadline: 3/1/2026")
	require.NotNil(t, d)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())

	d = parseDate("Senast 15.3.2026")
	require.NotNil(t, d)
	assert.Equal(t, time.March, d.Month())

	assert.Nil(t, parseDate("no date here"))
}

func TestParseRate(t *testing.T) {
	a := &models.Assignment{}
	parseRate(a, "800-950 SEK per hour")
	require.NotNil(t, a.HourlyRateMin)
	require.NotNil(t, a.HourlyRateMax)
	assert.Equal(t, 800, *a.HourlyRateMin)
	assert.Equal(t, 950, *a.HourlyRateMax)
	assert.Equal(t, "SEK", a.Currency)

	a = &models.Assignment{}
	parseRate(a, "1000 EUR")
	assert.Equal(t, 1000, *a.HourlyRateMin)
	assert.Equal(t, 1000, *a.HourlyRateMax)
	assert.Equal(t, "EUR", a.Currency)

	// Bare number defaults to SEK.
	a = &models.Assignment{}
	parseRate(a, "900 kr/h")
	assert.Equal(t, "SEK", a.Currency)

	a = &models.Assignment{}
	parseRate(a, "competitive rate")
	assert.Nil(t, a.HourlyRateMin)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://x.se/jobs/1", normalizeURL("https://x.se/jobs/1", "https://base.se"))
	assert.Equal(t, "https://base.se/jobs/1", normalizeURL("/jobs/1", "https://base.se"))
	assert.Equal(t, "https://base.se/jobs/1", normalizeURL("jobs/1", "https://base.se/"))
}
