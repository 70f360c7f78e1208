// Package config provides the configuration schema, loader, and polling
// watcher for the redraft editor service.
package config

import "time"

// Config is the root configuration structure. It is typically loaded
// from a YAML file using [Load] or [LoadFromReader].
//
// The edit service copies the values it needs at operation entry, so
// mutating a Config between operations never affects an in-flight edit.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Editor     EditorConfig     `yaml:"editor"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Debug      DebugConfig      `yaml:"debug"`
}

// LogLevel controls slog verbosity.
type LogLevel string

// IsValid reports whether l is a recognised level.
func (l LogLevel) IsValid() bool {
	switch l {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Valid values: "debug", "info",
	// "warn", "error". Empty means "info".
	LogLevel LogLevel `yaml:"log_level"`
}

// Backend names accepted by [EditorConfig.Backend]. "auto" resolves to
// "custom" when an endpoint URL is configured, to "openai" when an API
// key is present, and to "disabled" otherwise. The remaining names map
// onto the any-llm-go backends.
var ValidBackends = []string{
	"auto", "openai", "custom", "disabled",
	"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// EditorConfig selects and configures the model backend.
type EditorConfig struct {
	// Backend selects the provider implementation. See [ValidBackends].
	Backend string `yaml:"backend"`

	// EndpointURL is the base URL for the "custom" backend. Partial
	// URLs are resolved to the /chat/completions path.
	EndpointURL string `yaml:"endpoint_url"`

	// APIKey is the bearer credential. May be empty for local servers.
	APIKey string `yaml:"api_key"`

	// ModelName is the model identifier sent with every request.
	ModelName string `yaml:"model_name"`

	// TimeoutMs bounds the Strict model call. Default: 30000.
	TimeoutMs int `yaml:"timeout_ms"`

	// MaxTokens, when positive, overrides the per-mode token budget.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature, when set, overrides the per-mode temperature.
	Temperature *float64 `yaml:"temperature"`

	// DebugEnabled turns on the local debug record sink.
	DebugEnabled bool `yaml:"debug_enabled"`
}

// StrictTimeout returns the Strict-call timeout as a duration.
func (e EditorConfig) StrictTimeout() time.Duration {
	if e.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// ResolveBackend resolves the "auto" backend to a concrete choice.
func (e EditorConfig) ResolveBackend() string {
	if e.Backend != "auto" && e.Backend != "" {
		return e.Backend
	}
	switch {
	case e.EndpointURL != "":
		return "custom"
	case e.APIKey != "":
		return "openai"
	default:
		return "disabled"
	}
}

// DictionaryConfig points at the user dictionary interchange document.
type DictionaryConfig struct {
	// Path is the dictionary JSON file. Empty means no dictionary.
	Path string `yaml:"path"`
}

// DebugConfig configures the local debug record sink.
type DebugConfig struct {
	// Dir is the directory debug records are written to.
	// Empty means "./debug".
	Dir string `yaml:"dir"`
}

// EffectiveDir returns the debug directory with the default applied.
func (d DebugConfig) EffectiveDir() string {
	if d.Dir == "" {
		return "debug"
	}
	return d.Dir
}
