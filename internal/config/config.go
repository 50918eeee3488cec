// Package config loads application configuration from config.yaml and
// FIBERATLAS_-prefixed environment variables, with defaults baked in.
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
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Datasets DatasetsConfig `yaml:"datasets" mapstructure:"datasets"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	View     ViewConfig     `yaml:"view" mapstructure:"view"`
	Scales   ScalesConfig   `yaml:"scales" mapstructure:"scales"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the dataset cache backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DatasetsConfig holds one source URL per dataset. http, ftp, and
// local paths are all accepted.
type DatasetsConfig struct {
	Counties         string `yaml:"counties" mapstructure:"counties"`
	CountyBoundaries string `yaml:"county_boundaries" mapstructure:"county_boundaries"`
	States           string `yaml:"states" mapstructure:"states"`
	StateBoundaries  string `yaml:"state_boundaries" mapstructure:"state_boundaries"`
}

// FetchConfig configures dataset downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ViewConfig configures view-state behavior.
type ViewConfig struct {
	RegionalState    string `yaml:"regional_state" mapstructure:"regional_state"`
	SearchDebounceMS int    `yaml:"search_debounce_ms" mapstructure:"search_debounce_ms"`
}

// ScalesConfig points at an optional color scale override file.
type ScalesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// Validate checks the fields a command depends on. mode names the
// command ("serve", "load").
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "serve":
		check(c.Server.Port > 0, "server.port must be > 0")
		check(len(c.View.RegionalState) == 2, "view.regional_state must be a 2-digit state FIPS code")
		check(c.View.SearchDebounceMS >= 0, "view.search_debounce_ms must be >= 0")
		fallthrough
	case "load":
		check(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres" || c.Store.Driver == "none",
			"store.driver must be sqlite, postgres, or none")
		if c.Store.Driver == "postgres" {
			check(c.Store.DatabaseURL != "", "store.database_url is required for the postgres driver")
		}
		if c.Store.Driver == "sqlite" {
			check(c.Store.Path != "", "store.path is required for the sqlite driver")
		}
		check(c.Datasets.Counties != "", "datasets.counties is required")
		check(c.Datasets.CountyBoundaries != "", "datasets.county_boundaries is required")
		check(c.Datasets.States != "", "datasets.states is required")
		check(c.Datasets.StateBoundaries != "", "datasets.state_boundaries is required")
		check(c.Fetch.MaxRetries >= 0, "fetch.max_retries must be >= 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIBERATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "fiber-atlas.db")
	v.SetDefault("datasets.counties", "data/ny_counties.json")
	v.SetDefault("datasets.county_boundaries", "data/ny_counties.geojson")
	v.SetDefault("datasets.states", "data/us_states.json")
	v.SetDefault("datasets.state_boundaries", "data/us_states.geojson")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "fiber-atlas/1.0")
	v.SetDefault("view.regional_state", "36")
	v.SetDefault("view.search_debounce_ms", 250)

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
