// Package config resolves client configuration from the environment and an
// optional YAML file. Environment variables always win over file values so a
// checked-in config never overrides a deliberate shell export.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds client-wide settings shared by the fluent API and the CLI.
type Config struct {
	TrackingURI    string `env:"NEWRON_TRACKING_URI" yaml:"tracking_uri"`
	RegistryURI    string `env:"NEWRON_REGISTRY_URI" yaml:"registry_uri"`
	TrackingToken  string `env:"NEWRON_TRACKING_TOKEN" yaml:"tracking_token"`
	ExperimentID   string `env:"NEWRON_EXPERIMENT_ID" yaml:"experiment_id"`
	ExperimentName string `env:"NEWRON_EXPERIMENT_NAME" yaml:"experiment_name"`
	Python         string `env:"NEWRON_PYTHON" yaml:"python"`
	LogLevel       string `env:"NEWRON_LOG_LEVEL" yaml:"log_level"`
}

// FromEnv builds a Config from NEWRON_* environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	return cfg, nil
}

// LoadFile reads a YAML config file. Environment variables referenced as
// ${VAR} or $VAR in the YAML are expanded before parsing, so secrets can stay
// in the environment rather than in the file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("config: load file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse file: %w", err)
	}

	return cfg, nil
}

// Load resolves the effective configuration: values from the file at path
// (if it exists) overlaid with any set NEWRON_* environment variables.
// A missing file is not an error; the environment alone is used.
func Load(path string) (Config, error) {
	var file Config

	if path != "" {
		loaded, err := LoadFile(path)
		if err == nil {
			file = loaded
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	envCfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	return merge(file, envCfg), nil
}

// merge overlays overlay on top of base; empty overlay fields keep the base
// value.
func merge(base, overlay Config) Config {
	out := base
	if overlay.TrackingURI != "" {
		out.TrackingURI = overlay.TrackingURI
	}
	if overlay.RegistryURI != "" {
		out.RegistryURI = overlay.RegistryURI
	}
	if overlay.TrackingToken != "" {
		out.TrackingToken = overlay.TrackingToken
	}
	if overlay.ExperimentID != "" {
		out.ExperimentID = overlay.ExperimentID
	}
	if overlay.ExperimentName != "" {
		out.ExperimentName = overlay.ExperimentName
	}
	if overlay.Python != "" {
		out.Python = overlay.Python
	}
	if overlay.LogLevel != "" {
		out.LogLevel = overlay.LogLevel
	}

	return out
}

// Save writes the config to path as YAML. Creating parent directories is the
// caller's responsibility.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}

	return nil
}
