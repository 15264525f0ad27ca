package locations

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	remotePattern = regexp.MustCompile(
		`(?i)\b(remote|distans|på\s+distans|hemifr[åa]n|remote\s+work|work\s+from\s+home|remote-?based)\b`)

	remotePercentagePattern = regexp.MustCompile(
		`(?i)\b(\d{1,3})\s*%\s*(remote|distans|på\s+distans|hemifr[åa]n|remote\s+work|work\s+from\s+home)`)
)

// defaultRemoteKeywords is used when no keywords are configured. The config
// ships the same list, so the two only diverge when an operator edits theirs.
var defaultRemoteKeywords = []string{
	"remote",
	"distans",
	"på distans",
	"hemifrån",
	"remote work",
	"work from home",
	"remote-based",
	"remote based",
	"100% remote",
	"fully remote",
}

// RemoteDetector recognizes remote-work indicators in location text. The
// keyword list comes from configuration; a built-in bilingual pattern backs
// it up for word-boundary forms.
type RemoteDetector struct {
	keywords []string
}

// NewRemoteDetector creates a detector for the given keywords. An empty list
// falls back to the built-in Swedish and English defaults.
func NewRemoteDetector(keywords []string) *RemoteDetector {
	if len(keywords) == 0 {
		keywords = defaultRemoteKeywords
	}
	lowered := make([]string, len(keywords))
	for i, keyword := range keywords {
		lowered[i] = strings.ToLower(keyword)
	}
	return &RemoteDetector{keywords: lowered}
}

// IsRemote reports whether a location text indicates remote work.
func (d *RemoteDetector) IsRemote(locationText string) bool {
	if strings.TrimSpace(locationText) == "" {
		return false
	}

	lower := strings.ToLower(locationText)
	for _, keyword := range d.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return remotePattern.MatchString(locationText)
}

// ExtractRemotePercentage extracts a remote work percentage from text.
// Returns 100 when the text indicates remote work without a stated
// percentage, nil when nothing indicates remote work.
func (d *RemoteDetector) ExtractRemotePercentage(locationText string) *int {
	if strings.TrimSpace(locationText) == "" {
		return nil
	}

	if m := remotePercentagePattern.FindStringSubmatch(locationText); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil && pct >= 0 && pct <= 100 {
			return &pct
		}
	}

	if d.IsRemote(locationText) {
		full := 100
		return &full
	}
	return nil
}

var defaultDetector = NewRemoteDetector(nil)

// IsRemote reports whether a location text indicates remote work using the
// default keyword set. Both Swedish and English indicators are recognized.
func IsRemote(locationText string) bool {
	return defaultDetector.IsRemote(locationText)
}

// ExtractRemotePercentage extracts a remote work percentage from text using
// the default keyword set.
func ExtractRemotePercentage(locationText string) *int {
	return defaultDetector.ExtractRemotePercentage(locationText)
}
