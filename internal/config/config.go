package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ADRFLOW_PROVIDER_NAME.
const EnvPrefix = "ADRFLOW"

// Config holds all application configuration.
type Config struct {
	Provider    ProviderConfig `yaml:"provider" envconfig:"PROVIDER"`
	Resolver    ResolverConfig `yaml:"resolver" envconfig:"RESOLVER"`
	BasketsFile string         `yaml:"baskets_file" envconfig:"BASKETS_FILE"`
	HTTP        HTTPConfig     `yaml:"http" envconfig:"HTTP"`
	Telegram    TelegramConfig `yaml:"telegram" envconfig:"TELEGRAM"`
	Schedule    ScheduleConfig `yaml:"schedule" envconfig:"SCHEDULE"`
	Logging     LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ProviderConfig selects and tunes the market data source.
type ProviderConfig struct {
	Name    string        `yaml:"name" envconfig:"NAME" validate:"oneof=yahoo financego rest static"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required_if=Name rest"`
	APIKey  string        `yaml:"api_key" envconfig:"API_KEY"`
	Proxy   string        `yaml:"proxy" envconfig:"PROXY" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RPS     float64       `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int           `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// ResolverConfig tunes price resolution.
type ResolverConfig struct {
	LookbackDays int  `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS" validate:"gte=1,lte=31"`
	Concurrency  int  `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"gte=1,lte=32"`
	Debug        bool `yaml:"debug" envconfig:"DEBUG"`
}

// HTTPConfig is the optional read-only API.
type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// TelegramConfig enables report delivery when both fields are set.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"BOT_TOKEN" validate:"required_with=ChatID"`
	ChatID   string `yaml:"chat_id" envconfig:"CHAT_ID" validate:"required_with=BotToken"`
}

// ScheduleConfig drives the daily report.
type ScheduleConfig struct {
	ReportCron string `yaml:"report_cron" envconfig:"REPORT_CRON"`
	Timezone   string `yaml:"timezone" envconfig:"TIMEZONE"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if cfg.Provider.Proxy == "" {
		cfg.Provider.Proxy = os.Getenv("HTTPS_PROXY")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Name == "" {
		c.Provider.Name = "yahoo"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	if c.Provider.Burst == 0 {
		c.Provider.Burst = 1
	}
	if c.Resolver.LookbackDays == 0 {
		c.Resolver.LookbackDays = 7
	}
	if c.Resolver.Concurrency == 0 {
		c.Resolver.Concurrency = 1
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 30 18 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/Argentina/Buenos_Aires"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks field constraints and that the timezone exists.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid config: schedule.timezone: %w", err)
	}
	return nil
}

// Location is the parsed schedule timezone, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TelegramEnabled reports whether report delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
