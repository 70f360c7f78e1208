package debug_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/voxlane/redraft/internal/debug"
	"github.com/voxlane/redraft/internal/editor"
)

var fileNamePattern = regexp.MustCompile(`^\d{8}-\d{6}-[0-9a-f]{8}\.json$`)

func TestSink_WritesOneFilePerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink := debug.NewSink(dir)

	rec := debug.Record{
		ID:           debug.NewRecordID(),
		Timestamp:    time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		InputRaw:     "um hello",
		InputMode:    "clean",
		OutputEdited: "Hello.",
		DiffMetrics: &editor.SafetySummary{
			WordChangeRatio: 0.1,
			Passed:          true,
		},
		LatencyMs: 240,
		ModelUsed: "test-model",
	}
	sink.Put(rec)
	sink.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 record file, got %d", len(entries))
	}

	name := entries[0].Name()
	if !fileNamePattern.MatchString(name) {
		t.Errorf("file name %q does not match the timestamp-id pattern", name)
	}
	if !strings.HasPrefix(name, "20260801-093000-") {
		t.Errorf("file name %q does not embed the record timestamp", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}

	// Pretty-printed JSON document with the expected keys.
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	for _, key := range []string{"id", "timestamp", "input_raw", "input_mode", "output_edited", "diff_metrics", "latency_ms", "model_used", "fallback_triggered"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("record missing key %q", key)
		}
	}
	if !strings.HasPrefix(string(raw), "{\n") {
		t.Error("record must be pretty-printed")
	}

	// Keys are sorted lexicographically.
	keys := topLevelKeys(string(raw))
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("keys not sorted: %v", keys)
			break
		}
	}
}

func TestSink_RetentionSweepAtStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	stale := filepath.Join(dir, "20250101-000000-deadbeef.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().AddDate(0, 0, -debug.RetentionDays-1)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "20990101-000000-cafecafe.json")
	if err := os.WriteFile(fresh, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	sink := debug.NewSink(dir)
	sink.Close()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale record must be swept at start")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh record must survive the sweep")
	}
}

func TestSink_ErrorsAreSwallowed(t *testing.T) {
	t.Parallel()

	// A sink pointed at an uncreatable directory must not panic or
	// surface errors.
	sink := debug.NewSink(filepath.Join(string(os.PathSeparator), "dev", "null", "nope"))
	sink.Put(debug.Record{InputRaw: "x", InputMode: "clean"})
	sink.Close()
}

// topLevelKeys extracts the top-level key names from a pretty-printed
// JSON object in document order.
func topLevelKeys(doc string) []string {
	var keys []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "  \"") {
			end := strings.Index(line[3:], "\"")
			if end > 0 {
				keys = append(keys, line[3:3+end])
			}
		}
	}
	return keys
}
