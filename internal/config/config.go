// Package config loads and validates application configuration from a YAML
// file and REVIEWBOT_-prefixed environment variables.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

// Config is the full application configuration. It is validated once at
// startup and immutable afterwards.
type Config struct {
	BotIdentity  string           `mapstructure:"bot_identity"`
	PollInterval time.Duration    `mapstructure:"poll_interval"`
	Cooldown     time.Duration    `mapstructure:"cooldown"`
	PromptMode   model.PromptMode `mapstructure:"prompt_mode"`
	LogLevel     string           `mapstructure:"log_level"`
	DBPath       string           `mapstructure:"db_path"`

	GitHub     GitHubConfig     `mapstructure:"github"`
	GitLab     GitLabConfig     `mapstructure:"gitlab"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// GitHubConfig configures the GitHub target. It is considered configured
// when either field is set; both are then required.
type GitHubConfig struct {
	Token string   `mapstructure:"token"`
	Repos []string `mapstructure:"repos"` // "owner/repo" entries.
}

// Configured reports whether any GitHub setting was provided.
func (c GitHubConfig) Configured() bool {
	return c.Token != "" || len(c.Repos) > 0
}

// GitLabConfig configures the GitLab target.
type GitLabConfig struct {
	BaseURL  string   `mapstructure:"base_url"`
	Token    string   `mapstructure:"token"`
	Projects []string `mapstructure:"projects"` // Numeric IDs or "group/project" paths.
}

// Configured reports whether any GitLab setting was provided.
func (c GitLabConfig) Configured() bool {
	return c.Token != "" || len(c.Projects) > 0
}

// GenerationConfig configures the text-generation service.
type GenerationConfig struct {
	Host          string        `mapstructure:"host"`
	DefaultModel  string        `mapstructure:"default_model"`
	AllowedModels []string      `mapstructure:"allowed_models"` // Empty means no restriction.
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ConfigError reports a missing or invalid required field. It is fatal:
// the process exits non-zero before the polling loop starts.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: required field %q is missing or invalid", e.Field)
}

// SlogLevel maps the configured log level name to a slog.Level. Unknown
// names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration the way startup requires: every failure
// is a *ConfigError naming the offending field.
func (c *Config) Validate() error {
	if c.BotIdentity == "" {
		return &ConfigError{Field: "bot_identity"}
	}

	if !c.GitHub.Configured() && !c.GitLab.Configured() {
		return &ConfigError{Field: "repositories"}
	}

	if c.GitHub.Configured() {
		if c.GitHub.Token == "" {
			return &ConfigError{Field: "github.token"}
		}
		if len(c.GitHub.Repos) == 0 {
			return &ConfigError{Field: "github.repos"}
		}
	}

	if c.GitLab.Configured() {
		if c.GitLab.BaseURL == "" {
			return &ConfigError{Field: "gitlab.base_url"}
		}
		if c.GitLab.Token == "" {
			return &ConfigError{Field: "gitlab.token"}
		}
		if len(c.GitLab.Projects) == 0 {
			return &ConfigError{Field: "gitlab.projects"}
		}
	}

	switch c.PromptMode {
	case model.PromptModeDiff, model.PromptModeFiles:
	default:
		return &ConfigError{Field: "prompt_mode"}
	}

	if len(c.Generation.AllowedModels) > 0 && !contains(c.Generation.AllowedModels, c.Generation.DefaultModel) {
		return &ConfigError{Field: "generation.default_model"}
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
