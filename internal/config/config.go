package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Host         string        `yaml:"host" env:"FLICK_HOST" validate:"required"`
		Port         int           `yaml:"port" env:"FLICK_PORT" validate:"min=1,max=65535"`
		Debug        bool          `yaml:"debug" env:"FLICK_DEBUG"`
		LogLevel     string        `yaml:"log_level" env:"FLICK_LOG_LEVEL" validate:"oneof=debug info warn error"`
		LogFile      string        `yaml:"log_file" env:"FLICK_LOG_FILE"`
		ReadTimeout  time.Duration `yaml:"read_timeout" env:"FLICK_READ_TIMEOUT" validate:"gt=0"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"FLICK_WRITE_TIMEOUT" validate:"gt=0"`
	} `yaml:"app"`

	Metadata struct {
		TMDB struct {
			APIKey   string        `yaml:"api_key" env:"TMDB_API_KEY" validate:"required"`
			BaseURL  string        `yaml:"base_url" env:"TMDB_BASE_URL" validate:"required,url"`
			Language string        `yaml:"language" env:"TMDB_LANGUAGE"`
			Timeout  time.Duration `yaml:"timeout" env:"TMDB_TIMEOUT" validate:"gt=0"`
		} `yaml:"tmdb"`
	} `yaml:"metadata"`

	// Providers points at the runner hosting the provider library.
	Providers struct {
		URL              string        `yaml:"url" env:"PROVIDERS_URL" validate:"required,url"`
		Target           string        `yaml:"target" env:"PROVIDERS_TARGET" validate:"oneof=browser browser-extension native any"`
		Timeout          time.Duration `yaml:"timeout" env:"PROVIDERS_TIMEOUT" validate:"gt=0"`
		MovieSourceOrder []string      `yaml:"movie_source_order" env:"PROVIDERS_MOVIE_SOURCE_ORDER" validate:"dive,required"`
		AllSources       []string      `yaml:"all_sources" env:"PROVIDERS_ALL_SOURCES" validate:"min=1,dive,required"`
	} `yaml:"providers"`

	Scheduler struct {
		HealthCheck string `yaml:"health_check" env:"SCHEDULER_HEALTH_CHECK" validate:"required"`
	} `yaml:"scheduler"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags after defaults, file and environment have been applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func setDefaults(cfg *Config) {
	cfg.App.Host = "0.0.0.0"
	cfg.App.Port = 3000
	cfg.App.Debug = false
	cfg.App.LogLevel = "info"
	cfg.App.ReadTimeout = 15 * time.Second
	// runAll can walk every source before answering
	cfg.App.WriteTimeout = 3 * time.Minute

	cfg.Metadata.TMDB.BaseURL = "https://api.themoviedb.org/3"
	cfg.Metadata.TMDB.Language = "en-US"
	cfg.Metadata.TMDB.Timeout = 10 * time.Second

	cfg.Providers.URL = "http://localhost:3080"
	cfg.Providers.Target = "browser"
	cfg.Providers.Timeout = 2 * time.Minute
	cfg.Providers.MovieSourceOrder = []string{"flixhq"}
	cfg.Providers.AllSources = []string{"superstream", "zoechip", "gomovies", "flixhq", "remotestream"}

	cfg.Scheduler.HealthCheck = "@every 5m"
}

func loadFromEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	return nil
}
