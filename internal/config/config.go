// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Retry    RetryConfig    `yaml:"retry" mapstructure:"retry"`
	Policy   PolicyConfig   `yaml:"policy" mapstructure:"policy"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the flat-file working directories.
type DataConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	TableDir     string `yaml:"table_dir" mapstructure:"table_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	ResultsDir   string `yaml:"results_dir" mapstructure:"results_dir"`
	CacheDir     string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// FetchConfig configures report downloading.
type FetchConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	PathTemplate string `yaml:"path_template" mapstructure:"path_template"`
	Concurrency  int    `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ExtractConfig configures text extraction and parsing strategy selection.
type ExtractConfig struct {
	Strategy      string `yaml:"strategy" mapstructure:"strategy"` // "auto", "tabular", "freetext", "llm"
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// GeocodeConfig configures the Places text-search enrichment.
type GeocodeConfig struct {
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	Locality     string  `yaml:"locality" mapstructure:"locality"`
	Region       string  `yaml:"region" mapstructure:"region"`
	BiasLat      float64 `yaml:"bias_lat" mapstructure:"bias_lat"`
	BiasLng      float64 `yaml:"bias_lng" mapstructure:"bias_lng"`
	BiasRadiusM  float64 `yaml:"bias_radius_m" mapstructure:"bias_radius_m"`
	DelayMs      int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// QuerySuffix returns the fixed locality suffix appended to every geocode
// query, e.g. ", Palo Alto, CA".
func (g GeocodeConfig) QuerySuffix() string {
	return ", " + g.Locality + ", " + g.Region
}

// ClassifyConfig configures offense categorization.
type ClassifyConfig struct {
	Mode         string `yaml:"mode" mapstructure:"mode"` // "keyword" or "llm"
	AnthropicKey string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	Model        string `yaml:"model" mapstructure:"model"`
	MaxBatchSize int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// RetryConfig configures the bounded-retry policy around external calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// PolicyConfig points at an optional policy override file.
type PolicyConfig struct {
	File string `yaml:"file" mapstructure:"file"`
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
	v.SetEnvPrefix("SAFESTREETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.raw_dir", "data/raw_pdfs")
	v.SetDefault("data.table_dir", "data/csv_files")
	v.SetDefault("data.processed_dir", "data/processed")
	v.SetDefault("data.results_dir", "results")
	v.SetDefault("data.cache_dir", "data/cache")
	v.SetDefault("fetch.base_url", "https://www.cityofpaloalto.org")
	v.SetDefault("fetch.path_template", "/files/assets/public/police-department/report-log/%s-police-report-log.pdf")
	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("extract.strategy", "auto")
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	// Empty defaults register the secret keys with viper so AutomaticEnv
	// can bind them.
	v.SetDefault("geocode.api_key", "")
	v.SetDefault("classify.anthropic_key", "")
	v.SetDefault("policy.file", "")
	v.SetDefault("geocode.locality", "Palo Alto")
	v.SetDefault("geocode.region", "CA")
	v.SetDefault("geocode.bias_lat", 37.4419)
	v.SetDefault("geocode.bias_lng", -122.1430)
	v.SetDefault("geocode.bias_radius_m", 15000.0)
	v.SetDefault("geocode.delay_ms", 50)
	v.SetDefault("geocode.rate_limit_rps", 10)
	v.SetDefault("classify.mode", "keyword")
	v.SetDefault("classify.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("classify.max_batch_size", 50)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the credentials a stage depends on are present.
// A missing key here is fatal before any work starts, as opposed to a
// single failed call mid-run, which is recoverable.
func (c *Config) Validate(stage string) error {
	switch stage {
	case "geocode":
		if c.Geocode.APIKey == "" {
			return eris.New("config: geocode.api_key is required (set SAFESTREETS_GEOCODE_API_KEY)")
		}
	case "classify":
		if c.Classify.Mode == "llm" && c.Classify.AnthropicKey == "" {
			return eris.New("config: classify.anthropic_key is required for llm mode (set SAFESTREETS_CLASSIFY_ANTHROPIC_KEY)")
		}
	case "extract":
		if c.Extract.Strategy == "llm" && c.Classify.AnthropicKey == "" {
			return eris.New("config: classify.anthropic_key is required for llm extraction")
		}
	}
	return nil
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
