// Package config loads process settings from the environment. Every group is
// read under its own CASEFILES_* prefix; command-line flags override the
// result.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "CASEFILES"

// #region types
// Config is the full process configuration.
type Config struct {
	DBPath    string          `envconfig:"DB"`
	LogLevel  string          `envconfig:"LOG_LEVEL"`
	LogDev    bool            `envconfig:"LOG_DEV"`
	Narration NarrationConfig `ignored:"true"`
}

// NarrationConfig configures the narrator providers. An empty OpenAIAPIKey
// disables the OpenAI provider; an empty CodecAddr disables the gRPC one.
type NarrationConfig struct {
	OpenAIAPIKey string        `envconfig:"OPENAI_API_KEY"`
	Model        string        `envconfig:"MODEL"`
	BaseURL      string        `envconfig:"BASE_URL"`
	CodecAddr    string        `envconfig:"CODEC_ADDR"`
	Timeout      time.Duration `envconfig:"TIMEOUT"`
}

// #endregion types

// #region defaults
// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:   "casefiles.db",
		LogLevel: "info",
		Narration: NarrationConfig{
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
	}
}

// #endregion defaults

// #region load
// Load starts from Default and applies CASEFILES_* and
// CASEFILES_NARRATION_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := envconfig.Process(envPrefix+"_NARRATION", &cfg.Narration); err != nil {
		return Config{}, fmt.Errorf("config narration: %w", err)
	}
	if cfg.Narration.Timeout <= 0 {
		return Config{}, fmt.Errorf("config narration: timeout must be positive, got %s", cfg.Narration.Timeout)
	}
	return cfg, nil
}

// NarrationEnabled reports whether any narrator provider is configured.
func (c Config) NarrationEnabled() bool {
	return c.Narration.OpenAIAPIKey != "" || c.Narration.CodecAddr != ""
}

// #endregion load
