package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"uppdragsradarn-crawler/internal/logging/types"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Database DatabaseConfig `yaml:"database"`

	Redis struct {
		URL     string        `yaml:"url"`
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Crawler struct {
		UserAgent      string        `yaml:"user_agent"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		RetryDelay     time.Duration `yaml:"retry_delay"`
		MaxRetryDelay  time.Duration `yaml:"max_retry_delay"`
		RateLimit      int           `yaml:"rate_limit"` // requests per minute per domain
		CourtesyDelay  time.Duration `yaml:"courtesy_delay"`
	} `yaml:"crawler"`

	Workers struct {
		PoolSize     int           `yaml:"pool_size"`
		QueueSize    int           `yaml:"queue_size"`
		BatchWorkers int           `yaml:"batch_workers"`
		JobTimeout   time.Duration `yaml:"job_timeout"`
	} `yaml:"workers"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Locations struct {
		DefaultCountryCode string   `yaml:"default_country_code"`
		DefaultCountryName string   `yaml:"default_country_name"`
		DefaultCurrency    string   `yaml:"default_currency"`
		RemoteKeywords     []string `yaml:"remote_keywords"`
	} `yaml:"locations"`

	Scheduler struct {
		Enabled  bool   `yaml:"enabled"`
		Schedule string `yaml:"schedule"` // cron expression
	} `yaml:"scheduler"`

	Logging struct {
		Level    string                `yaml:"level"`
		Format   string                `yaml:"format"`
		Adapters []types.AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// DatabaseConfig holds the postgres connection settings
type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int           `yaml:"max_connections"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// expandEnvVars expands ${VAR} and $VAR references in the YAML content
func expandEnvVars(s string) string {
	braced := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = braced.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	bare := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	return bare.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env if present
	_ = godotenv.Load()

	config := defaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			content := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(content), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second

	config.Database.MaxConnections = 10
	config.Database.ConnectTimeout = 5 * time.Second

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.Enabled = false
	config.Redis.TTL = 12 * time.Hour

	config.Crawler.UserAgent = "Mozilla/5.0 (compatible; UppdragsRadarn/1.0; +https://uppdragsradarn.se/bot)"
	config.Crawler.RequestTimeout = 30 * time.Second
	config.Crawler.MaxRetries = 3
	config.Crawler.RetryDelay = 1 * time.Second
	config.Crawler.MaxRetryDelay = 30 * time.Second
	config.Crawler.RateLimit = 60
	config.Crawler.CourtesyDelay = 1 * time.Second

	config.Workers.PoolSize = 4
	config.Workers.QueueSize = 64
	config.Workers.BatchWorkers = 5
	config.Workers.JobTimeout = 30 * time.Minute

	config.LLM.Provider = "claude"
	config.LLM.Model = "claude-3-haiku-20240307"
	config.LLM.MaxTokens = 2000
	config.LLM.Temperature = 0.1
	config.LLM.Timeout = 60 * time.Second

	config.Locations.DefaultCountryCode = "SE"
	config.Locations.DefaultCountryName = "Sweden"
	config.Locations.DefaultCurrency = "SEK"
	config.Locations.RemoteKeywords = []string{
		"remote", "distans", "på distans", "hemifrån", "remote work",
		"work from home", "remote-based", "remote based", "100% remote",
		"fully remote",
	}

	config.Scheduler.Enabled = true
	config.Scheduler.Schedule = "0 */6 * * *"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	return config
}

// loadFromEnv overrides configuration with environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		c.Redis.URL = url
		c.Redis.Enabled = true
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if schedule := os.Getenv("CRAWLER_SCHEDULE"); schedule != "" {
		c.Scheduler.Schedule = schedule
	}
	if ua := os.Getenv("CRAWLER_USER_AGENT"); ua != "" {
		c.Crawler.UserAgent = ua
	}
}
