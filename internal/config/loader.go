package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile, when set, is used directly and must exist.
	ConfigFile string
	// ConfigPaths are searched for "reviewbot.yaml" when ConfigFile is
	// empty. A missing file is not an error: everything can come from
	// environment variables.
	ConfigPaths []string
}

// Load returns the merged, validated configuration from file and environment.
func Load(opts LoaderOptions) (*Config, error) {
	v := viper.New()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("reviewbot")
		v.SetConfigType("yaml")
		paths := opts.ConfigPaths
		if len(paths) == 0 {
			paths = []string{".", "$HOME/.config/reviewbot"}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("REVIEWBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval", "30s")
	v.SetDefault("cooldown", "2m")
	v.SetDefault("prompt_mode", "diff")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_path", "reviewbot.db")
	v.SetDefault("generation.host", "http://localhost:11434")
	v.SetDefault("generation.default_model", "codellama")
	v.SetDefault("generation.timeout", "5m")
}
