package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxlane/redraft/internal/config"
)

func writeConfig(t *testing.T, path, model string) {
	t.Helper()
	body := "editor:\n  backend: custom\n  endpoint_url: http://localhost:8080\n  model_name: " + model + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "model-one")

	changed := make(chan *config.Config, 1)
	w, err := config.NewWatcher(path, func(_, cfg *config.Config) {
		changed <- cfg
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if got := w.Current().Editor.ModelName; got != "model-one" {
		t.Fatalf("initial model = %q", got)
	}

	writeConfig(t, path, "model-two")

	select {
	case cfg := <-changed:
		if cfg.Editor.ModelName != "model-two" {
			t.Errorf("reloaded model = %q", cfg.Editor.ModelName)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not observe the change")
	}

	if got := w.Current().Editor.ModelName; got != "model-two" {
		t.Errorf("Current() = %q after reload", got)
	}
}

func TestWatcher_KeepsPreviousConfigOnInvalidRewrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "model-one")

	w, err := config.NewWatcher(path, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("editor:\n  backend: nonsense\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Editor.ModelName; got != "model-one" {
		t.Errorf("invalid rewrite must not replace config; model = %q", got)
	}
}

func TestWatcher_MissingFileFailsConstruction(t *testing.T) {
	t.Parallel()

	if _, err := config.NewWatcher(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
