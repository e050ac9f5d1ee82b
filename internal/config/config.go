// Package config loads application configuration from a YAML file and
// environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Forager   ForagerConfig   `yaml:"forager" mapstructure:"forager"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Feeds     FeedsConfig     `yaml:"feeds" mapstructure:"feeds"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ForagerConfig holds the company website lookup API settings. The
// autocomplete endpoint is unauthenticated, so there is no key here.
type ForagerConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig configures page fetching and retry behavior.
type FetchConfig struct {
	DelayMinSecs     int    `yaml:"delay_min_secs" mapstructure:"delay_min_secs"`
	DelayMaxSecs     int    `yaml:"delay_max_secs" mapstructure:"delay_max_secs"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
	PageTimeoutSecs  int    `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	SnapshotDir      string `yaml:"snapshot_dir" mapstructure:"snapshot_dir"`
	RateLimitBaseSec int    `yaml:"rate_limit_base_secs" mapstructure:"rate_limit_base_secs"`
	FailureBaseSecs  int    `yaml:"failure_base_secs" mapstructure:"failure_base_secs"`
}

// PipelineConfig configures the URL processing run.
type PipelineConfig struct {
	StatusPath       string `yaml:"status_path" mapstructure:"status_path"`
	URLDelayMinSecs  int    `yaml:"url_delay_min_secs" mapstructure:"url_delay_min_secs"`
	URLDelayMaxSecs  int    `yaml:"url_delay_max_secs" mapstructure:"url_delay_max_secs"`
	ClassifyMaxChars int    `yaml:"classify_max_chars" mapstructure:"classify_max_chars"`
}

// ExportConfig configures the result sinks.
type ExportConfig struct {
	CSVPath  string `yaml:"csv_path" mapstructure:"csv_path"`
	JSONPath string `yaml:"json_path" mapstructure:"json_path"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// FeedsConfig lists the RSS/Atom feeds to ingest article URLs from.
type FeedsConfig struct {
	Sources     []FeedSource `yaml:"sources" mapstructure:"sources"`
	TimeoutSecs int          `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency int          `yaml:"concurrency" mapstructure:"concurrency"`
}

// FeedSource is a single named feed.
type FeedSource struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// ServerConfig configures the HTTP trigger server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALSOURCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "dealsource.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("forager.base_url", "https://api-v2.forager.ai/api/datastorage/autocomplete/organizations/")
	v.SetDefault("fetch.delay_min_secs", 3)
	v.SetDefault("fetch.delay_max_secs", 8)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.page_timeout_secs", 60)
	v.SetDefault("fetch.rate_limit_base_secs", 10)
	v.SetDefault("fetch.failure_base_secs", 30)
	v.SetDefault("fetch.snapshot_dir", "snapshots")
	v.SetDefault("pipeline.status_path", "url_status.csv")
	v.SetDefault("pipeline.url_delay_min_secs", 10)
	v.SetDefault("pipeline.url_delay_max_secs", 20)
	v.SetDefault("pipeline.classify_max_chars", 1500)
	v.SetDefault("export.csv_path", "deals.csv")
	v.SetDefault("export.json_path", "deals.json")
	v.SetDefault("export.xlsx_path", "")
	v.SetDefault("feeds.timeout_secs", 30)
	v.SetDefault("feeds.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
