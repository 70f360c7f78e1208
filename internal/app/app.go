// Package app wires configuration, the model provider, the dictionary
// snapshot, the edit pipeline, metrics, and the debug sink into the
// EditService consumed by the CLI (and, upstream, by an ASR producer).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/voxlane/redraft/internal/config"
	"github.com/voxlane/redraft/internal/debug"
	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/editor/pipeline"
	"github.com/voxlane/redraft/internal/observe"
	"github.com/voxlane/redraft/internal/resilience"
	"github.com/voxlane/redraft/pkg/provider/llm"
	"github.com/voxlane/redraft/pkg/provider/llm/anyllm"
	"github.com/voxlane/redraft/pkg/provider/llm/openai"
	"github.com/voxlane/redraft/pkg/provider/llm/openaicompat"
)

// minEditLength is the shortest original (in runes) worth editing;
// anything shorter bypasses the pipeline.
const minEditLength = 3

// Metadata carries upstream ASR context for one edit operation. It is
// informational: logged, never acted upon.
type Metadata struct {
	AudioDurationMs  int
	ASRModel         string
	DetectedLanguage string
	Timestamp        time.Time
}

// Input is one edit operation as handed over by the upstream producer.
type Input struct {
	Original string
	Mode     editor.OutputMode
	Language string
	Metadata Metadata
}

// Output is what the downstream sink receives.
type Output struct {
	// Text is the edited text, or the original verbatim on bypass.
	Text string

	// Report is nil on bypass.
	Report *editor.EditReport

	// Bypassed reports that the pipeline was not invoked.
	Bypassed bool
}

// Service runs edit operations. It is safe for concurrent use; every
// operation snapshots configuration and dictionary state at entry.
type Service struct {
	cfg      func() *config.Config
	provider llm.Provider
	backend  string
	pipeline *pipeline.Pipeline
	dict     []dictionary.Term
	detector *dictionary.Detector
	sink     *debug.Sink
	metrics  *observe.Metrics
	log      *slog.Logger
}

// Option is a functional option for [New].
type Option func(*Service)

// WithDebugSink attaches a debug record sink.
func WithDebugSink(s *debug.Sink) Option {
	return func(svc *Service) { svc.sink = s }
}

// WithMetrics overrides the default metrics instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.log = l }
}

// WithDictionary installs the read-only dictionary snapshot.
func WithDictionary(terms []dictionary.Term) Option {
	return func(svc *Service) { svc.dict = terms }
}

// New assembles a Service. cfg is called at every operation entry so a
// config watcher can feed reloads; it must never return nil. provider
// may be nil when the backend is disabled.
func New(cfg func() *config.Config, provider llm.Provider, backend string, opts ...Option) *Service {
	svc := &Service{
		cfg:      cfg,
		provider: provider,
		backend:  backend,
		detector: dictionary.NewDetector(),
		metrics:  observe.DefaultMetrics(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(svc)
	}
	if provider != nil {
		model := cfg().Editor.ModelName
		svc.pipeline = pipeline.New(provider, model, pipeline.WithLogger(svc.log))
	}
	return svc
}

// Edit runs one edit operation. The returned error is non-nil only on
// caller cancellation; every other failure surfaces as deterministic
// fallback output inside a normal result.
func (s *Service) Edit(ctx context.Context, in Input) (Output, error) {
	snapshot := *s.cfg()

	if s.bypass(snapshot, in) {
		return Output{Text: in.Original, Bypassed: true}, nil
	}

	glossary := slices.Clone(s.dict)
	req := editor.Request{
		Original:      in.Original,
		Mode:          in.Mode,
		Language:      language(in),
		Glossary:      glossary,
		Hints:         s.detector.DetectMisheard(in.Original, glossary),
		StrictTimeout: snapshot.Editor.StrictTimeout(),
		MaxTokens:     snapshot.Editor.MaxTokens,
		Temperature:   snapshot.Editor.Temperature,
	}
	if caps := s.provider.Capabilities(); caps.MaxOutputTokens > 0 && req.MaxTokens > caps.MaxOutputTokens {
		req.MaxTokens = caps.MaxOutputTokens
	}

	ctx, span := observe.Tracer().Start(ctx, "redraft.edit")
	defer span.End()

	result, err := s.pipeline.Edit(ctx, req)
	if err != nil {
		// Cancellation: no result, no debug record.
		return Output{}, err
	}

	fallback := result.Report.Safety.FallbackTriggered
	s.metrics.RecordEdit(ctx, string(in.Mode), float64(result.Report.LatencyMs)/1000, fallback)
	if s.metrics.ModelRequests != nil {
		s.metrics.ModelRequests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", s.backend),
			attribute.String("status", status(fallback)),
		))
	}
	if kind := result.Report.FailureKind; kind != "" && s.metrics.ModelErrors != nil {
		s.metrics.ModelErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", s.backend),
			attribute.String("kind", kind),
		))
	}

	if snapshot.Editor.DebugEnabled && s.sink != nil {
		rec := debug.Record{
			ID:                debug.NewRecordID(),
			Timestamp:         time.Now().UTC(),
			InputRaw:          in.Original,
			InputMode:         string(in.Mode),
			OutputEdited:      result.Edited,
			OutputError:       result.Report.FailureDetail,
			DiffMetrics:       &result.Report.Safety,
			LatencyMs:         result.Report.LatencyMs,
			ModelUsed:         result.Report.ModelUsed,
			FallbackTriggered: fallback,
		}
		s.sink.Put(rec)
	}

	return Output{Text: result.Edited, Report: &result.Report}, nil
}

// bypass reports whether the pipeline should not run at all: backend or
// mode disabled, no pipeline built, or input too short to edit.
func (s *Service) bypass(snapshot config.Config, in Input) bool {
	if s.pipeline == nil || in.Mode == editor.ModeDisabled {
		return true
	}
	if snapshot.Editor.ResolveBackend() == "disabled" {
		return true
	}
	return utf8.RuneCountInString(in.Original) < minEditLength
}

func language(in Input) string {
	if in.Language != "" {
		return in.Language
	}
	return in.Metadata.DetectedLanguage
}

func status(fallback bool) string {
	if fallback {
		return "fallback"
	}
	return "success"
}

// BuildProvider constructs the model provider selected by cfg, wrapped
// in a circuit breaker. It returns a nil provider for the disabled
// backend.
func BuildProvider(cfg config.EditorConfig) (llm.Provider, string, error) {
	backend := cfg.ResolveBackend()

	var (
		inner llm.Provider
		err   error
	)
	switch backend {
	case "disabled":
		return nil, backend, nil

	case "openai":
		var opts []openai.Option
		if cfg.EndpointURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.EndpointURL))
		}
		inner, err = openai.New(cfg.APIKey, cfg.ModelName, opts...)

	case "custom":
		inner, err = openaicompat.New(cfg.EndpointURL, cfg.APIKey, cfg.ModelName)

	default:
		var opts []anyllmlib.Option
		if cfg.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
		}
		if cfg.EndpointURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(cfg.EndpointURL))
		}
		inner, err = anyllm.New(backend, cfg.ModelName, opts...)
	}
	if err != nil {
		return nil, backend, fmt.Errorf("app: build %s provider: %w", backend, err)
	}

	guarded := resilience.Guard(inner, resilience.BreakerConfig{Name: backend})
	return guarded, backend, nil
}
