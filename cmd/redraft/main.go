// Command redraft reads raw speech-to-text output, runs it through the
// safety-gated edit pipeline, and prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxlane/redraft/internal/app"
	"github.com/voxlane/redraft/internal/config"
	"github.com/voxlane/redraft/internal/debug"
	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	modeFlag := flag.String("mode", "clean", "output mode: verbatim, clean, notes, email, slack")
	langFlag := flag.String("lang", "", "language hint forwarded to the model")
	verbose := flag.Bool("verbose", false, "print the edit report as JSON on stderr")
	flag.Parse()

	mode := editor.OutputMode(*modeFlag)
	if !mode.IsValid() || mode == editor.ModeDisabled {
		fmt.Fprintf(os.Stderr, "redraft: unknown mode %q\n", *modeFlag)
		return 2
	}

	// ── Load configuration ─────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "redraft: config file %q not found — copy config.example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "redraft: %v\n", err)
		}
		return 1
	}

	// ── Logger ─────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	// ── Telemetry ──────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "redraft"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	// ── Input text ─────────────────────────────────────────────────────
	original, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "redraft: %v\n", err)
		return 1
	}

	// ── Dictionary snapshot ────────────────────────────────────────────
	var terms []dictionary.Term
	if cfg.Dictionary.Path != "" {
		doc, err := dictionary.Load(cfg.Dictionary.Path)
		if err != nil {
			slog.Error("failed to load dictionary", "err", err)
			return 1
		}
		terms = doc.Snapshot()
	}

	// ── Provider ───────────────────────────────────────────────────────
	provider, backend, err := app.BuildProvider(cfg.Editor)
	if err != nil {
		slog.Error("failed to build model provider", "err", err)
		return 1
	}
	slog.Info("redraft starting",
		"backend", backend,
		"model", cfg.Editor.ModelName,
		"mode", mode,
		"dictionary_terms", len(terms),
	)

	// ── Service wiring ─────────────────────────────────────────────────
	opts := []app.Option{app.WithDictionary(terms)}
	if cfg.Editor.DebugEnabled {
		sink := debug.NewSink(cfg.Debug.EffectiveDir())
		defer sink.Close()
		opts = append(opts, app.WithDebugSink(sink))
	}
	service := app.New(func() *config.Config { return cfg }, provider, backend, opts...)

	// ── Edit ───────────────────────────────────────────────────────────
	out, err := service.Edit(ctx, app.Input{
		Original: original,
		Mode:     mode,
		Language: *langFlag,
		Metadata: app.Metadata{Timestamp: time.Now()},
	})
	if err != nil {
		// Cancellation: emit the original unchanged, per sink policy.
		fmt.Println(original)
		return 130
	}

	fmt.Println(out.Text)
	if *verbose && out.Report != nil {
		buf, _ := json.MarshalIndent(out.Report, "", "  ")
		fmt.Fprintln(os.Stderr, string(buf))
	}
	return 0
}

// readInput takes the text from argv when present, stdin otherwise.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	buf, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(buf), "\n"), nil
}

// newLogger builds the process logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
