package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a
// validated [Config]. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected so that typos fail loudly.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It
// returns a joined error listing all failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Editor.Backend != "" && !slices.Contains(ValidBackends, cfg.Editor.Backend) {
		errs = append(errs, fmt.Errorf("editor.backend %q is invalid; valid values: %v", cfg.Editor.Backend, ValidBackends))
	}
	if cfg.Editor.TimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("editor.timeout_ms %d must not be negative", cfg.Editor.TimeoutMs))
	}
	if cfg.Editor.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("editor.max_tokens %d must not be negative", cfg.Editor.MaxTokens))
	}
	if t := cfg.Editor.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("editor.temperature %v outside [0, 2]", *t))
	}

	backend := cfg.Editor.ResolveBackend()
	if backend != "disabled" && cfg.Editor.ModelName == "" {
		errs = append(errs, errors.New("editor.model_name must be set when a backend is enabled"))
	}
	if backend == "custom" && cfg.Editor.EndpointURL == "" {
		errs = append(errs, errors.New("editor.endpoint_url must be set for the custom backend"))
	}
	if backend == "openai" && cfg.Editor.APIKey == "" {
		errs = append(errs, errors.New("editor.api_key must be set for the openai backend"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
