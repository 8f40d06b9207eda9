package conf

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dedup store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the application configuration. Immutable after Load.
type Config struct {
	Stock StockConfig `yaml:"stock_config"`
	Log   LogConfig   `yaml:"log"`
}

// StockConfig configures the classify-and-push pipeline.
type StockConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ZhipuAPIKey string `yaml:"zhipu_api_key"`
	WebhookURL  string `yaml:"webhook_url"`
	Model       string `yaml:"model"`
	MaxRetries  int    `yaml:"max_retries"`

	// APIBase overrides the Zhipu endpoint; leave empty for the default.
	APIBase string `yaml:"api_base"`

	// DedupStore selects how delivered IDs are remembered. The in-memory
	// default forgets across restarts, which only costs re-classification.
	DedupStore string      `yaml:"dedup_store"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis dedup store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the YAML config file, applies environment overrides and fills
// defaults. A missing file is not an error; env and defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if val := os.Getenv("STOCK_ENABLED"); val != "" {
		c.Stock.Enabled = val == "true"
	}
	if val := os.Getenv("ZHIPU_API_KEY"); val != "" {
		c.Stock.ZhipuAPIKey = val
	}
	if val := os.Getenv("STOCK_WEBHOOK_URL"); val != "" {
		c.Stock.WebhookURL = val
	}
	if val := os.Getenv("STOCK_MODEL"); val != "" {
		c.Stock.Model = val
	}
	if val := os.Getenv("STOCK_MAX_RETRIES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.Stock.MaxRetries = parsed
		}
	}
	if val := os.Getenv("STOCK_DEDUP_STORE"); val != "" {
		c.Stock.DedupStore = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_PATH"); val != "" {
		c.Log.Path = val
	}
}

func (c *Config) fillDefaults() {
	if c.Stock.Model == "" {
		c.Stock.Model = "glm-4-flash"
	}
	if c.Stock.MaxRetries <= 0 {
		c.Stock.MaxRetries = 3
	}
	if c.Stock.DedupStore == "" {
		c.Stock.DedupStore = StoreMemory
	}
	if c.Stock.SQLitePath == "" {
		c.Stock.SQLitePath = "data/delivered.db"
	}
	if c.Stock.Redis.Addr == "" {
		c.Stock.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate validates the configuration. A disabled or keyless pipeline is
// deliberately valid; it degrades to a no-op.
func (c *Config) Validate() error {
	switch c.Stock.DedupStore {
	case StoreMemory, StoreSQLite, StoreRedis:
		return nil
	default:
		return &ConfigError{Field: "stock_config.dedup_store", Message: "must be memory, sqlite or redis"}
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
