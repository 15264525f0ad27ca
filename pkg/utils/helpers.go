package utils

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// GenerateJobID generates a unique crawl job ID
func GenerateJobID() string {
	return uuid.New().String()
}

// ExternalIDFromURL derives a stable external id from a listing URL: the last
// non-trivial path segment, or an FNV hash of the full URL when the path
// carries no usable segment.
func ExternalIDFromURL(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segments) > 0 {
			last := segments[len(segments)-1]
			if last != "" && last != "index.html" {
				return last
			}
		}
	}

	h := fnv.New64a()
	h.Write([]byte(rawURL))
	return fmt.Sprintf("url-%x", h.Sum64())
}

// ExtractDomain extracts the lowercased hostname from a URL, returning
// "unknown" when it cannot be parsed
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	host := parsed.Hostname()
	if host == "" {
		return "unknown"
	}
	return strings.ToLower(host)
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// DedupeFold removes case-insensitive duplicates from a slice, keeping the
// first occurrence and its original casing
func DedupeFold(items []string) []string {
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// GetStringOrDefault returns the value if not empty, otherwise the default
func GetStringOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
