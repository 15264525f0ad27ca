package providers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"uppdragsradarn-crawler/pkg/models"
)

var (
	ratePattern = regexp.MustCompile(`(\d+)(?:[\s-]*(\d+))?\s*([A-Z]{3})?`)

	isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	usDatePattern  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	euDatePattern  = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
)

// parseDate finds the first recognizable date in a string. Supports ISO
// (2026-01-31), US (1/31/2026) and European (31.1.2026) formats.
func parseDate(s string) *time.Time {
	if m := isoDatePattern.FindString(s); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return &t
		}
	}
	if m := usDatePattern.FindString(s); m != "" {
		if t, err := time.Parse("1/2/2006", m); err == nil {
			return &t
		}
	}
	if m := euDatePattern.FindString(s); m != "" {
		if t, err := time.Parse("2.1.2006", m); err == nil {
			return &t
		}
	}
	return nil
}

// parseRate extracts an hourly rate range and currency from free text like
// "800-950 SEK/h". A single number fills both ends of the range. Currency
// defaults to SEK when none is stated.
func parseRate(a *models.Assignment, rateStr string) {
	m := ratePattern.FindStringSubmatch(rateStr)
	if m == nil {
		return
	}

	min, err := strconv.Atoi(m[1])
	if err != nil {
		return
	}
	a.HourlyRateMin = &min

	if m[2] != "" {
		if max, err := strconv.Atoi(m[2]); err == nil {
			a.HourlyRateMax = &max
		}
	}
	if a.HourlyRateMax == nil {
		max := min
		a.HourlyRateMax = &max
	}

	switch {
	case m[3] != "":
		a.Currency = m[3]
	case strings.Contains(rateStr, "SEK") || strings.Contains(rateStr, "kr"):
		a.Currency = "SEK"
	default:
		a.Currency = "SEK"
	}
}

// normalizeURL resolves a possibly relative link against the source base URL
func normalizeURL(link, baseURL string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	base := strings.TrimSuffix(baseURL, "/")
	if strings.HasPrefix(link, "/") {
		return base + link
	}
	return base + "/" + link
}
