package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvFile   = "BATTREND_CONFIG"
	EnvPrefix = "BATTREND_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BATTREND_CONFIG is set
//  3. env (prefix BATTREND_)
//
// Nested engine keys use a double underscore in the environment:
// BATTREND_ENGINE__REGRESSION__MIN_CAREER_PA -> engine.regression.min_career_pa.
func Load(_ context.Context) (*Config, error) {
	return load(os.Getenv(EnvFile))
}

// LoadFile is Load with an explicit file path that takes the place of
// BATTREND_CONFIG. An empty path falls back to the environment.
func LoadFile(_ context.Context, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The file variable itself is not a setting.
	k.Delete("config")

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
