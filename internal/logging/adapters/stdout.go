package adapters

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"uppdragsradarn-crawler/internal/logging/types"
)

// StdoutAdapter writes log entries to stdout as JSON or text lines
type StdoutAdapter struct {
	name   string
	format string
	mu     sync.Mutex
}

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format string `yaml:"format"` // json or text
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	format := strings.ToLower(config.Format)
	if format != "text" {
		format = "json"
	}
	return &StdoutAdapter{name: name, format: format}
}

// Write writes a log entry to stdout
func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var line string
	var err error
	if a.format == "text" {
		line = formatText(entry)
	} else {
		line, err = formatJSON(entry)
		if err != nil {
			return fmt.Errorf("failed to format log entry: %w", err)
		}
	}

	_, err = fmt.Fprintln(os.Stdout, line)
	return err
}

// Close is a no-op for stdout
func (a *StdoutAdapter) Close() error { return nil }

// Name returns the name of the adapter
func (a *StdoutAdapter) Name() string { return a.name }

func formatJSON(entry *types.LogEntry) (string, error) {
	data := map[string]interface{}{
		"level":     entry.Level.String(),
		"message":   entry.Message,
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
	}
	for k, v := range entry.Fields {
		data[k] = v
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func formatText(entry *types.LogEntry) string {
	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("] ")
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
		}
	}
	return b.String()
}
