// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	XBearerToken string `env:"X_BEARER_TOKEN"`
	XAPIBaseURL  string `env:"X_API_BASE_URL" default:"https://api.twitter.com"`

	TriggerPhrase  string        `env:"TRIGGER_PHRASE" default:"riddle me this"`
	TrustedListURL string        `env:"TRUSTED_LIST_URL" default:"https://raw.githubusercontent.com/devsyrem/turst-list/main/list"`
	TrustedListTTL time.Duration `env:"TRUSTED_LIST_TTL" default:"24h"`

	PollInterval     time.Duration `env:"POLL_INTERVAL" default:"5m"`
	EventCooldown    time.Duration `env:"EVENT_COOLDOWN" default:"5s"`
	AnalysisCooldown time.Duration `env:"ANALYSIS_COOLDOWN" default:"24h"`

	PostSampleSize     int `env:"POST_SAMPLE_SIZE" default:"20"`
	FollowerSampleSize int `env:"FOLLOWER_SAMPLE_SIZE" default:"100"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":   cfg.DatabaseURL,
		"REDIS_URL":      cfg.RedisURL,
		"X_BEARER_TOKEN": cfg.XBearerToken,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.PostSampleSize < 1 || cfg.PostSampleSize > 100 {
		return fmt.Errorf("POST_SAMPLE_SIZE must be between 1 and 100, got %d", cfg.PostSampleSize)
	}
	if cfg.FollowerSampleSize < 1 || cfg.FollowerSampleSize > 1000 {
		return fmt.Errorf("FOLLOWER_SAMPLE_SIZE must be between 1 and 1000, got %d", cfg.FollowerSampleSize)
	}

	return nil
}
