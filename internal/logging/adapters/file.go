package adapters

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"uppdragsradarn-crawler/internal/logging/types"
)

// FileAdapter appends log entries to a file
type FileAdapter struct {
	name   string
	format string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath   string `yaml:"file_path"`
	Format     string `yaml:"format"` // json or text
	CreateDirs bool   `yaml:"create_dirs"`
}

// NewFileAdapter creates a new file adapter, opening the target file for
// appending
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for file adapter")
	}

	if config.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	format := config.Format
	if format != "text" {
		format = "json"
	}

	return &FileAdapter{
		name:   name,
		format: format,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Write writes a log entry to the file
func (a *FileAdapter) Write(entry *types.LogEntry) error {
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

	if _, err := a.writer.WriteString(line + "\n"); err != nil {
		return err
	}
	return a.writer.Flush()
}

// Close flushes and closes the underlying file
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.writer.Flush(); err != nil {
		return err
	}
	return a.file.Close()
}

// Name returns the name of the adapter
func (a *FileAdapter) Name() string { return a.name }
