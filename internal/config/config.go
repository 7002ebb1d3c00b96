package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr      string        `mapstructure:"HTTP_ADDR"`
	DBURL         string        `mapstructure:"DB_URL"`
	GithubToken   string        `mapstructure:"GITHUB_TOKEN"`
	GithubTimeout time.Duration `mapstructure:"GITHUB_TIMEOUT"`
	CacheSize     int           `mapstructure:"CACHE_SIZE"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
}

// LoadConfig reads configuration from a .env file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_TIMEOUT", "10s")
	viper.SetDefault("CACHE_SIZE", 256)
	viper.SetDefault("CACHE_TTL", "5m")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.CacheSize <= 0 {
		return nil, errors.New("CACHE_SIZE must be greater than zero")
	}

	return &cfg, nil
}
