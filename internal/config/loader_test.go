package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/voxlane/redraft/internal/config"
)

const validYAML = `
server:
  log_level: debug
editor:
  backend: custom
  endpoint_url: http://localhost:8080/v1
  model_name: qwen2.5-7b-instruct
  timeout_ms: 15000
  debug_enabled: true
dictionary:
  path: ./dictionary.json
debug:
  dir: ./debug-records
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Editor.Backend != "custom" || cfg.Editor.ModelName != "qwen2.5-7b-instruct" {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	if got := cfg.Editor.StrictTimeout(); got != 15*time.Second {
		t.Errorf("strict timeout = %v", got)
	}
	if !cfg.Editor.DebugEnabled {
		t.Error("debug_enabled not parsed")
	}
	if cfg.Debug.EffectiveDir() != "./debug-records" {
		t.Errorf("debug dir = %q", cfg.Debug.EffectiveDir())
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("editor:\n  modle_name: oops\n"))
	if err == nil {
		t.Fatal("unknown field must be rejected")
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\n",
			want: "log_level",
		},
		{
			name: "bad backend",
			yaml: "editor:\n  backend: telepathy\n  model_name: m\n",
			want: "backend",
		},
		{
			name: "custom without endpoint",
			yaml: "editor:\n  backend: custom\n  model_name: m\n",
			want: "endpoint_url",
		},
		{
			name: "openai without key",
			yaml: "editor:\n  backend: openai\n  model_name: m\n",
			want: "api_key",
		},
		{
			name: "enabled backend without model",
			yaml: "editor:\n  backend: custom\n  endpoint_url: http://x\n",
			want: "model_name",
		},
		{
			name: "temperature out of range",
			yaml: "editor:\n  backend: custom\n  endpoint_url: http://x\n  model_name: m\n  temperature: 3.5\n",
			want: "temperature",
		},
		{
			name: "negative timeout",
			yaml: "editor:\n  backend: custom\n  endpoint_url: http://x\n  model_name: m\n  timeout_ms: -1\n",
			want: "timeout_ms",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestResolveBackend_Auto(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  config.EditorConfig
		want string
	}{
		{"endpoint wins", config.EditorConfig{Backend: "auto", EndpointURL: "http://x", APIKey: "k"}, "custom"},
		{"key selects openai", config.EditorConfig{Backend: "auto", APIKey: "k"}, "openai"},
		{"nothing disables", config.EditorConfig{Backend: "auto"}, "disabled"},
		{"empty backend behaves like auto", config.EditorConfig{}, "disabled"},
		{"explicit name passes through", config.EditorConfig{Backend: "anthropic"}, "anthropic"},
	}
	for _, tc := range cases {
		if got := tc.cfg.ResolveBackend(); got != tc.want {
			t.Errorf("%s: ResolveBackend() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDisabledBackendNeedsNothing(t *testing.T) {
	t.Parallel()

	if _, err := config.LoadFromReader(strings.NewReader("editor:\n  backend: disabled\n")); err != nil {
		t.Errorf("disabled backend must validate: %v", err)
	}
}
