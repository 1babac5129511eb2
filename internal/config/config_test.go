package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewbot/internal/config"
	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

func validConfig() config.Config {
	return config.Config{
		BotIdentity: "review-bot",
		PromptMode:  model.PromptModeDiff,
		GitHub: config.GitHubConfig{
			Token: "ghp_test",
			Repos: []string{"org/repo"},
		},
		Generation: config.GenerationConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "codellama",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		field   string
	}{
		{
			name:   "missing bot identity",
			mutate: func(c *config.Config) { c.BotIdentity = "" },
			field:  "bot_identity",
		},
		{
			name: "no targets configured",
			mutate: func(c *config.Config) {
				c.GitHub = config.GitHubConfig{}
				c.GitLab = config.GitLabConfig{}
			},
			field: "repositories",
		},
		{
			name:   "github repos without token",
			mutate: func(c *config.Config) { c.GitHub.Token = "" },
			field:  "github.token",
		},
		{
			name:   "github token without repos",
			mutate: func(c *config.Config) { c.GitHub.Repos = nil },
			field:  "github.repos",
		},
		{
			name: "gitlab token without base url",
			mutate: func(c *config.Config) {
				c.GitLab = config.GitLabConfig{Token: "glpat", Projects: []string{"42"}}
			},
			field: "gitlab.base_url",
		},
		{
			name: "gitlab projects without token",
			mutate: func(c *config.Config) {
				c.GitLab = config.GitLabConfig{BaseURL: "https://gitlab.example.com", Projects: []string{"42"}}
			},
			field: "gitlab.token",
		},
		{
			name: "gitlab token without projects",
			mutate: func(c *config.Config) {
				c.GitLab = config.GitLabConfig{BaseURL: "https://gitlab.example.com", Token: "glpat"}
			},
			field: "gitlab.projects",
		},
		{
			name:   "unknown prompt mode",
			mutate: func(c *config.Config) { c.PromptMode = "summary" },
			field:  "prompt_mode",
		},
		{
			name: "default model outside allow list",
			mutate: func(c *config.Config) {
				c.Generation.AllowedModels = []string{"mistral"}
			},
			field: "generation.default_model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_DefaultModelInAllowList(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.AllowedModels = []string{"codellama", "mistral"}
	assert.NoError(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := config.Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviewbot.yaml")
	yaml := `
bot_identity: review-bot
poll_interval: 45s
prompt_mode: files
log_level: debug
github:
  token: ghp_test
  repos:
    - org/repo
    - org/other
generation:
  host: http://ollama:11434
  default_model: mistral
  allowed_models:
    - mistral
    - codellama
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "review-bot", cfg.BotIdentity)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
	assert.Equal(t, model.PromptModeFiles, cfg.PromptMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"org/repo", "org/other"}, cfg.GitHub.Repos)
	assert.Equal(t, "http://ollama:11434", cfg.Generation.Host)
	assert.Equal(t, "mistral", cfg.Generation.DefaultModel)

	// Defaults fill everything the file left out.
	assert.Equal(t, 2*time.Minute, cfg.Cooldown)
	assert.Equal(t, "reviewbot.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.Generation.Timeout)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("REVIEWBOT_GITHUB_TOKEN", "ghp_from_env")
	t.Setenv("REVIEWBOT_LOG_LEVEL", "warn")

	dir := t.TempDir()
	path := filepath.Join(dir, "reviewbot.yaml")
	yaml := `
bot_identity: review-bot
github:
  token: ghp_from_file
  repos:
    - org/repo
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "ghp_from_env", cfg.GitHub.Token)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, model.PromptModeDiff, cfg.PromptMode)
	assert.Equal(t, "codellama", cfg.Generation.DefaultModel)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := config.Load(config.LoaderOptions{
		ConfigFile: filepath.Join(t.TempDir(), "absent.yaml"),
	})
	require.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviewbot.yaml")
	yaml := `
bot_identity: review-bot
github:
  token: ghp_test
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := config.Load(config.LoaderOptions{ConfigFile: path})
	require.Error(t, err)

	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "github.repos", cfgErr.Field)
}
