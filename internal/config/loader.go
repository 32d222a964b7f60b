package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/reviewscan/internal/backoff"
)

const (
	// DefaultConfigFile is the per-directory configuration file name.
	DefaultConfigFile = ".reviewscan"

	// XDGConfigFile is the file name inside the XDG config directory.
	XDGConfigFile = "config.yaml"
)

// LoadConfigFile reads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*Config, error) {
	cfg, _, err := decodeConfigFile(path)
	return cfg, err
}

// decodeConfigFile parses the file and records which delay intervals it sets.
func decodeConfigFile(path string) (*Config, *fileIntervals, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrConfigNotFound
		}
		return nil, nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.ConfigFilePath = path

	var intervals fileIntervals
	if err := yaml.Unmarshal(data, &intervals); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cfg, &intervals, nil
}

// fileIntervals holds the delay intervals present in a config file.
// A nil pointer means the key is absent. mergo skips zero values, so
// an explicit "min: 0s, max: 0s" is only visible here.
type fileIntervals struct {
	Retry struct {
		Blocked     *backoff.Jitter `yaml:"blocked"`
		ServerError *backoff.Jitter `yaml:"server_error"`
		Transport   *backoff.Jitter `yaml:"transport"`
		Unexpected  *backoff.Jitter `yaml:"unexpected"`
	} `yaml:"retry"`
	Pacing *backoff.Jitter `yaml:"pacing"`
}

// apply copies every interval present in the file into cfg.
func (f *fileIntervals) apply(cfg *Config) {
	pairs := []struct {
		dst *backoff.Jitter
		src *backoff.Jitter
	}{
		{&cfg.Retry.Blocked, f.Retry.Blocked},
		{&cfg.Retry.ServerError, f.Retry.ServerError},
		{&cfg.Retry.Transport, f.Retry.Transport},
		{&cfg.Retry.Unexpected, f.Retry.Unexpected},
		{&cfg.Pacing, f.Pacing},
	}
	for _, p := range pairs {
		if p.src != nil {
			*p.dst = *p.src
		}
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .reviewscan in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), XDGConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Load builds the effective configuration: defaults, then the config file
// (if one is found), then the environment. An explicit configPath that
// does not exist is an error; a missing default file is not.
//
// File values are merged over the defaults with mergo, so zero values in
// the file keep the default. Delay intervals are the exception: an interval
// present in the file wins even when both bounds are zero.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	if path != "" {
		fileCfg, intervals, err := decodeConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := Merge(cfg, fileCfg); err != nil {
			return nil, err
		}
		intervals.apply(cfg)
	}

	ApplyEnv(cfg, os.LookupEnv)

	return cfg, nil
}

// Merge copies every non-zero field of src over dst.
// A delay interval is replaced as a whole, so a file can set
// "min: 0s" without inheriting the default minimum.
func Merge(dst, src *Config) error {
	if err := mergo.Merge(dst, *src, mergo.WithOverride, mergo.WithTransformers(jitterTransformer{})); err != nil {
		return fmt.Errorf("failed to merge configuration: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables.
// lookup is os.LookupEnv in production and a map lookup in tests.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		cfg.APIKey = strings.TrimSpace(v)
	}
}

// jitterTransformer makes mergo treat backoff.Jitter as a single value.
type jitterTransformer struct{}

// Transformer implements mergo.Transformers.
func (jitterTransformer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ != reflect.TypeOf(backoff.Jitter{}) {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if dst.CanSet() && !src.IsZero() {
			dst.Set(src)
		}
		return nil
	}
}
