package logging

import (
	"fmt"
	"sync"

	"uppdragsradarn-crawler/internal/logging/adapters"
	"uppdragsradarn-crawler/internal/logging/types"
)

// Manager owns the logging system initialization and the global logger
type Manager struct {
	logger *MultiLogger
}

// NewManager creates a new logging manager
func NewManager() *Manager {
	return &Manager{logger: NewMultiLogger()}
}

// Initialize configures the logger from adapter configs. When no adapter is
// enabled a JSON stdout adapter is installed so logs are never lost.
func (m *Manager) Initialize(level string, format string, adapterConfigs []types.AdapterConfig) error {
	m.logger.SetLevel(ParseLogLevel(level))

	added := 0
	for _, ac := range adapterConfigs {
		if !ac.Enabled {
			continue
		}

		adapter, err := createAdapter(ac)
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
		}
		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", ac.Name, err)
		}
		added++
	}

	if added == 0 {
		return m.logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: format}))
	}
	return nil
}

// GetLogger returns the managed logger
func (m *Manager) GetLogger() Logger {
	return m.logger
}

// Close closes the logging system
func (m *Manager) Close() error {
	return m.logger.Close()
}

func createAdapter(ac types.AdapterConfig) (types.LogAdapter, error) {
	switch ac.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(ac.Name, adapters.StdoutConfig{
			Format: stringOption(ac.Options, "format", "json"),
		}), nil
	case "file":
		return adapters.NewFileAdapter(ac.Name, adapters.FileConfig{
			FilePath:   stringOption(ac.Options, "file_path", ""),
			Format:     stringOption(ac.Options, "format", "json"),
			CreateDirs: boolOption(ac.Options, "create_dirs", true),
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", ac.Type)
	}
}

func stringOption(options map[string]interface{}, key, defaultValue string) string {
	if v, ok := options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultValue
}

func boolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := options[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultValue
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager
)

// InitializeLogging initializes the global logging system
func InitializeLogging(level, format string, adapterConfigs []types.AdapterConfig) error {
	m := NewManager()
	if err := m.Initialize(level, format, adapterConfigs); err != nil {
		return err
	}

	globalMu.Lock()
	globalManager = m
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger returns the global logger, installing a basic stdout logger
// when InitializeLogging has not run yet
func GetGlobalLogger() Logger {
	globalMu.RLock()
	m := globalManager
	globalMu.RUnlock()
	if m != nil {
		return m.GetLogger()
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		globalManager = NewManager()
		globalManager.logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: "json"}))
	}
	return globalManager.GetLogger()
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		return nil
	}
	err := globalManager.Close()
	globalManager = nil
	return err
}

// LogWithRequestID returns the global logger with a request id field attached
func LogWithRequestID(requestID string) Logger {
	return GetGlobalLogger().WithField("request_id", requestID)
}
