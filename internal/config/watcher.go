package config

import (
	"crypto/sha256"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Watcher monitors a config file for changes and calls a callback when
// the file is modified. It uses polling (not fsnotify) to keep
// dependencies minimal.
//
// The edit service snapshots config values per operation, so a reload
// observed mid-edit never affects that edit — only subsequent ones.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(old, new *Config)

	mu      sync.Mutex
	current *Config

	done     chan struct{}
	stopOnce sync.Once

	lastMtime time.Time
	lastHash  [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Default: 5s.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// NewWatcher loads the config at path and starts polling it for
// changes. onChange is invoked from the polling goroutine with the
// previous and the freshly-loaded config whenever the file content
// changes and still validates; an invalid rewrite is logged and the
// previous config stays current.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	w.current = cfg
	w.lastMtime, w.lastHash, _ = fileState(path)

	go w.poll()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop terminates the polling goroutine. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check reloads the file when its mtime or content hash changed.
func (w *Watcher) check() {
	mtime, hash, err := fileState(w.path)
	if err != nil {
		return
	}
	if mtime.Equal(w.lastMtime) && hash == w.lastHash {
		return
	}
	w.lastMtime, w.lastHash = mtime, hash

	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload failed, keeping previous config",
			"path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = cfg
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// fileState returns the file's mtime and content hash.
func fileState(path string) (time.Time, [sha256.Size]byte, error) {
	var zero [sha256.Size]byte

	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, zero, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return time.Time{}, zero, err
	}
	var sum [sha256.Size]byte
	copy(sum[:], h.Sum(nil))
	return info.ModTime(), sum, nil
}
