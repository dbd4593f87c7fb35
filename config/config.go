// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/contentpro/ideagate/domain/payment"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Generator GeneratorConfig `yaml:"generator"`
	Quota     QuotaConfig     `yaml:"quota"`
	Prices    []PriceConfig   `yaml:"prices"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the HTTP surface (health and metrics).
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	Token         string        `yaml:"token"`
	ProviderToken string        `yaml:"provider_token"`
	APIURL        string        `yaml:"api_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// GeneratorConfig configures the upstream content generator.
type GeneratorConfig struct {
	Mode      string        `yaml:"mode"` // "openai" or "static"
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// QuotaConfig configures free-tier quota and subscription length.
type QuotaConfig struct {
	DailyFree        int `yaml:"daily_free"`
	SubscriptionDays int `yaml:"subscription_days"`
}

// PriceConfig configures one currency's fixed price point.
type PriceConfig struct {
	Currency     string `yaml:"currency"`
	AmountMinor  int64  `yaml:"amount_minor"`
	Denomination string `yaml:"denomination"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory", "jsonfile", or "sqlite"
	Path   string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment
// variables, for container deployments without a config file.
//
// Environment variables:
//
//	IDEAGATE_TELEGRAM_TOKEN     - Bot API token (required)
//	IDEAGATE_PROVIDER_TOKEN     - Payment provider token
//	IDEAGATE_GENERATOR_API_KEY  - Generation API key
//	IDEAGATE_GENERATOR_URL      - Generation API base URL
//	IDEAGATE_STORAGE_DRIVER     - memory, jsonfile, or sqlite
//	IDEAGATE_STORAGE_PATH       - Store file path
//	IDEAGATE_SERVER_PORT        - HTTP port (default: 8080)
//	IDEAGATE_LOG_LEVEL          - debug, info, warn, error (default: info)
//	IDEAGATE_LOG_FORMAT         - json or console (default: json)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries the config file first, then environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set IDEAGATE_TELEGRAM_TOKEN")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("IDEAGATE_TELEGRAM_TOKEN") != ""
}

// applyEnvOverrides applies IDEAGATE_* environment variables.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IDEAGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("IDEAGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("IDEAGATE_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("IDEAGATE_PROVIDER_TOKEN"); v != "" {
		cfg.Telegram.ProviderToken = v
	}
	if v := os.Getenv("IDEAGATE_TELEGRAM_API_URL"); v != "" {
		cfg.Telegram.APIURL = v
	}

	if v := os.Getenv("IDEAGATE_GENERATOR_MODE"); v != "" {
		cfg.Generator.Mode = v
	}
	if v := os.Getenv("IDEAGATE_GENERATOR_URL"); v != "" {
		cfg.Generator.BaseURL = v
	}
	if v := os.Getenv("IDEAGATE_GENERATOR_API_KEY"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("IDEAGATE_GENERATOR_MODEL"); v != "" {
		cfg.Generator.Model = v
	}

	if v := os.Getenv("IDEAGATE_QUOTA_DAILY_FREE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.DailyFree = n
		}
	}
	if v := os.Getenv("IDEAGATE_SUBSCRIPTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quota.SubscriptionDays = n
		}
	}

	if v := os.Getenv("IDEAGATE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("IDEAGATE_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	if v := os.Getenv("IDEAGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IDEAGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// setDefaults fills in default values for unset fields.
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 50 * time.Second
	}

	if cfg.Generator.Mode == "" {
		cfg.Generator.Mode = "openai"
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 600
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 60 * time.Second
	}

	if cfg.Quota.DailyFree == 0 {
		cfg.Quota.DailyFree = 3
	}
	if cfg.Quota.SubscriptionDays == 0 {
		cfg.Quota.SubscriptionDays = 30
	}

	if len(cfg.Prices) == 0 {
		cfg.Prices = []PriceConfig{
			{Currency: "USDT", AmountMinor: 1000, Denomination: "USD"},
			{Currency: "TON", AmountMinor: 1500, Denomination: "USD"},
			{Currency: "STARS", AmountMinor: 10000, Denomination: "XTR"},
		}
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "jsonfile"
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Driver {
		case "sqlite":
			cfg.Storage.Path = "ideagate.db"
		case "jsonfile":
			cfg.Storage.Path = "users_data.json"
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate checks configuration consistency.
func validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}

	switch cfg.Storage.Driver {
	case "memory", "jsonfile", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Generator.Mode {
	case "openai", "static":
	default:
		return fmt.Errorf("unknown generator mode %q", cfg.Generator.Mode)
	}

	if cfg.Quota.DailyFree < 0 {
		return fmt.Errorf("quota.daily_free must not be negative")
	}
	if cfg.Quota.SubscriptionDays <= 0 {
		return fmt.Errorf("quota.subscription_days must be positive")
	}

	seen := make(map[payment.Currency]bool)
	for _, p := range cfg.Prices {
		cur, err := payment.ParseCurrency(p.Currency)
		if err != nil {
			return fmt.Errorf("prices: %w", err)
		}
		if seen[cur] {
			return fmt.Errorf("prices: duplicate entry for %s", cur)
		}
		seen[cur] = true
		if p.AmountMinor <= 0 {
			return fmt.Errorf("prices: amount for %s must be positive", cur)
		}
		if p.Denomination == "" {
			return fmt.Errorf("prices: denomination for %s is required", cur)
		}
	}

	return nil
}

// PriceTable converts the configured prices to the domain table.
func (c *Config) PriceTable() payment.PriceTable {
	table := make(payment.PriceTable, len(c.Prices))
	for _, p := range c.Prices {
		cur, err := payment.ParseCurrency(p.Currency)
		if err != nil {
			continue // validate already rejected unknown currencies
		}
		table[cur] = payment.Price{
			AmountMinorUnits: p.AmountMinor,
			Denomination:     p.Denomination,
		}
	}
	return table
}
