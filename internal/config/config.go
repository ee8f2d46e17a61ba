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
	Socrata   SocrataConfig   `yaml:"socrata" mapstructure:"socrata"`
	Census    CensusConfig    `yaml:"census" mapstructure:"census"`
	Filter    FilterConfig    `yaml:"filter" mapstructure:"filter"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SocrataConfig holds NYC Open Data (SODA API) settings for the 311 dataset.
type SocrataConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	DatasetID string `yaml:"dataset_id" mapstructure:"dataset_id"`
	AppToken  string `yaml:"app_token" mapstructure:"app_token"`
	PageSize  int    `yaml:"page_size" mapstructure:"page_size"`
}

// CensusConfig holds tract boundary and demographic data sources.
type CensusConfig struct {
	TractsURL        string `yaml:"tracts_url" mapstructure:"tracts_url"`
	TractsPath       string `yaml:"tracts_path" mapstructure:"tracts_path"`
	DemographicsPath string `yaml:"demographics_path" mapstructure:"demographics_path"`
}

// FilterConfig configures the flood-complaint filter stage.
type FilterConfig struct {
	Year         int      `yaml:"year" mapstructure:"year"`
	Keywords     []string `yaml:"keywords" mapstructure:"keywords"`
	KeywordsFile string   `yaml:"keywords_file" mapstructure:"keywords_file"`
}

// PipelineConfig configures pipeline directories and behavior.
type PipelineConfig struct {
	DataDir    string `yaml:"data_dir" mapstructure:"data_dir"`
	FiguresDir string `yaml:"figures_dir" mapstructure:"figures_dir"`
	ResultsDir string `yaml:"results_dir" mapstructure:"results_dir"`
	MapsDir    string `yaml:"maps_dir" mapstructure:"maps_dir"`
}

// FetchConfig configures download behavior.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Force       bool   `yaml:"force" mapstructure:"force"`
}

// GeocodeConfig configures optional coordinate backfill for complaints
// that carry an address but no geocode.
type GeocodeConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RenderConfig configures map and chart output.
type RenderConfig struct {
	MaxPoints   int    `yaml:"max_points" mapstructure:"max_points"`
	ColorScheme string `yaml:"color_scheme" mapstructure:"color_scheme"`
	TileLayer   string `yaml:"tile_layer" mapstructure:"tile_layer"`
}

// AnthropicConfig holds the optional narrative-report model settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ServerConfig configures the results server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultKeywords is the flood vocabulary matched against complaint types
// when no keywords file is configured.
var DefaultKeywords = []string{
	"flood", "water", "sewer", "drain", "basin", "wet", "leak", "plumb",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLOODWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "floodwatch.db")
	v.SetDefault("socrata.base_url", "https://data.cityofnewyork.us")
	v.SetDefault("socrata.dataset_id", "erm2-nwe9")
	v.SetDefault("socrata.page_size", 50000)
	v.SetDefault("census.tracts_url", "https://www2.census.gov/geo/tiger/TIGER2019/TRACT/tl_2019_36_tract.zip")
	v.SetDefault("filter.year", 2019)
	v.SetDefault("filter.keywords", DefaultKeywords)
	v.SetDefault("pipeline.data_dir", "data")
	v.SetDefault("pipeline.figures_dir", "figures")
	v.SetDefault("pipeline.results_dir", "results")
	v.SetDefault("pipeline.maps_dir", "maps")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "floodwatch/1.0")
	v.SetDefault("geocode.enabled", false)
	v.SetDefault("geocode.rate_limit", 5)
	v.SetDefault("render.max_points", 5000)
	v.SetDefault("render.color_scheme", "ylorrd")
	v.SetDefault("render.tile_layer", "cartodbpositron")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("server.port", 8080)
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
