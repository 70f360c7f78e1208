// Package debug persists one JSON document per edit operation for local
// troubleshooting.
//
// Each record is its own file, so no shared index or write coordination
// exists; crash-safety comes from atomic rename. Records older than the
// retention window are swept at start and opportunistically after
// writes. Every error in this package is swallowed — debug persistence
// must never affect foreground behaviour — and writes happen on a
// background goroutine that never blocks the caller.
package debug

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/observe"
)

const (
	// RetentionDays is how long records are kept before the sweep
	// deletes them.
	RetentionDays = 7

	// idPrefixLen is how much of the record id lands in the filename.
	idPrefixLen = 8

	// queueSize bounds the background write queue; records beyond it
	// are dropped rather than blocking the edit path.
	queueSize = 64

	// sweepInterval rate-limits opportunistic retention sweeps.
	sweepInterval = time.Hour
)

// Record is one on-disk debug document. Field order is irrelevant: the
// document is marshalled with sorted keys.
type Record struct {
	ID                string                `json:"id"`
	Timestamp         time.Time             `json:"timestamp"`
	InputRaw          string                `json:"input_raw"`
	InputMode         string                `json:"input_mode"`
	OutputEdited      string                `json:"output_edited,omitempty"`
	OutputError       string                `json:"output_error,omitempty"`
	DiffMetrics       *editor.SafetySummary `json:"diff_metrics,omitempty"`
	LatencyMs         int64                 `json:"latency_ms"`
	ModelUsed         string                `json:"model_used,omitempty"`
	FallbackTriggered bool                  `json:"fallback_triggered"`
}

// NewRecordID returns a fresh record identifier.
func NewRecordID() string { return uuid.NewString() }

// Sink writes records to its own directory in the background.
// The zero value is not usable; construct with [NewSink].
type Sink struct {
	dir     string
	log     *slog.Logger
	metrics *observe.Metrics

	queue chan Record
	done  chan struct{}

	mu        sync.Mutex
	lastSweep time.Time
}

// SinkOption is a functional option for [NewSink].
type SinkOption func(*Sink)

// WithLogger sets the logger for swallowed-error diagnostics.
func WithLogger(l *slog.Logger) SinkOption {
	return func(s *Sink) { s.log = l }
}

// WithMetrics overrides the default metrics instance used for the
// dropped-record counter.
func WithMetrics(m *observe.Metrics) SinkOption {
	return func(s *Sink) { s.metrics = m }
}

// NewSink creates the sink's directory if absent, runs an initial
// retention sweep, and starts the background writer.
func NewSink(dir string, opts ...SinkOption) *Sink {
	s := &Sink{
		dir:     dir,
		log:     slog.Default(),
		metrics: observe.DefaultMetrics(),
		queue:   make(chan Record, queueSize),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		s.log.Debug("debug sink: mkdir failed", "dir", dir, "error", err)
	}
	s.sweep(time.Now())

	go s.run()
	return s
}

// Put enqueues a record for background persistence. It never blocks:
// when the queue is full the record is dropped and counted.
func (s *Sink) Put(rec Record) {
	select {
	case s.queue <- rec:
	default:
		s.log.Debug("debug sink: queue full, dropping record", "id", rec.ID)
		if s.metrics.DebugDrops != nil {
			s.metrics.DebugDrops.Add(context.Background(), 1)
		}
	}
}

// Close stops the background writer after draining queued records.
func (s *Sink) Close() {
	close(s.queue)
	<-s.done
}

// run is the background writer loop.
func (s *Sink) run() {
	defer close(s.done)
	for rec := range s.queue {
		s.write(rec)
		s.maybeSweep()
	}
}

// write persists one record atomically: marshal with sorted keys, write
// to a temp file, rename into place.
func (s *Sink) write(rec Record) {
	if rec.ID == "" {
		rec.ID = NewRecordID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	doc, err := sortedDocument(rec)
	if err != nil {
		s.log.Debug("debug sink: marshal failed", "id", rec.ID, "error", err)
		return
	}

	name := rec.Timestamp.Format("20060102-150405") + "-" + idPrefix(rec.ID) + ".json"
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		s.log.Debug("debug sink: create temp failed", "error", err)
		return
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(doc)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		s.log.Debug("debug sink: temp write failed", "write_error", werr, "close_error", cerr)
		return
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		s.log.Debug("debug sink: rename failed", "path", path, "error", err)
	}
}

// sortedDocument renders rec as pretty-printed JSON with
// lexicographically sorted keys.
func sortedDocument(rec Record) ([]byte, error) {
	// Round-trip through a map: encoding/json sorts map keys.
	flat, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(flat, &m); err != nil {
		return nil, err
	}
	return json.MarshalIndent(m, "", "  ")
}

// maybeSweep runs a retention sweep at most once per sweepInterval.
func (s *Sink) maybeSweep() {
	now := time.Now()
	s.mu.Lock()
	due := now.Sub(s.lastSweep) >= sweepInterval
	if due {
		s.lastSweep = now
	}
	s.mu.Unlock()
	if due {
		s.sweep(now)
	}
}

// sweep deletes records whose mtime is older than the retention window.
// Deletions run with bounded concurrency; all errors are swallowed.
func (s *Sink) sweep(now time.Time) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -RetentionDays)

	var g errgroup.Group
	g.SetLimit(4)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		g.Go(func() error {
			if err := os.Remove(path); err != nil {
				s.log.Debug("debug sink: sweep remove failed", "path", path, "error", err)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // deletions never report errors upward
}

func idPrefix(id string) string {
	if len(id) <= idPrefixLen {
		return id
	}
	return id[:idPrefixLen]
}
