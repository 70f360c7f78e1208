// Package pipeline runs the Strict → Repair → Fallback state machine
// for one edit operation at a time.
//
// One operation makes at most two model calls — a Strict pass and, when
// the strict result fails validation, a Repair pass asking the model to
// fix its own malformed output. Every model answer runs through three
// validators in sequence: structure (parseability), mode (shape rules),
// and diff (numeric change bounds, glossary retention, number
// preservation). When both passes fail, the deterministic post-processor
// produces the output instead, so the pipeline never returns an error
// short of caller cancellation.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/editor/guard"
	"github.com/voxlane/redraft/internal/editor/parse"
	"github.com/voxlane/redraft/internal/editor/postproc"
	"github.com/voxlane/redraft/internal/editor/prompt"
	"github.com/voxlane/redraft/pkg/provider/llm"
)

const (
	defaultRepairTimeout = 10 * time.Second
	repairTemperature    = 0.0
	repairMaxTokens      = 512
	fallbackModelName    = "fallback"
)

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithRepairTimeout overrides the fixed Repair-call timeout. Default: 10s.
func WithRepairTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.repairTimeout = d }
}

// WithLogger sets the logger used for per-pass diagnostics. Default:
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// Pipeline is stateless between operations and safe for concurrent use.
//
// It cannot fail from the caller's perspective: it either returns an
// [editor.EditedText] (model-produced or deterministic fallback) or, on
// caller cancellation, returns the context error and no result.
type Pipeline struct {
	provider      llm.Provider
	model         string
	repairTimeout time.Duration
	log           *slog.Logger
}

// New constructs a [Pipeline] over the given provider. model is the
// backend model name recorded in reports.
func New(provider llm.Provider, model string, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:      provider,
		model:         model,
		repairTimeout: defaultRepairTimeout,
		log:           slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// guardOutcome is the result of running one model answer through the
// full guard chain.
type guardOutcome struct {
	output  editor.ParsedOutput
	summary editor.SafetySummary
	passed  bool
	reason  string
	raw     string
}

// Edit runs one edit operation to a terminal state.
//
// The only error ever returned is the caller's cancellation; every model
// or validation failure routes to the deterministic fallback instead.
func (p *Pipeline) Edit(ctx context.Context, req editor.Request) (*editor.EditedText, error) {
	start := time.Now()
	tokens := 0

	// ── Strict pass ──────────────────────────────────────────────────
	sampling := editor.SamplingFor(req.Mode)
	if req.MaxTokens > 0 {
		sampling.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		sampling.Temperature = *req.Temperature
	}

	strictReq := llm.CompletionRequest{
		SystemPrompt: prompt.System(req.Mode, req.Glossary),
		Messages:     []llm.Message{{Role: "user", Content: prompt.User(req)}},
		Temperature:  sampling.Temperature,
		MaxTokens:    sampling.MaxTokens,
		JSONObject:   true,
	}

	content, usage, err := p.complete(ctx, strictReq, req.StrictTimeout)
	tokens += usage
	if err != nil {
		if llm.IsCancelled(err) {
			return nil, err
		}
		// A call that failed outright left nothing to repair; go
		// straight to the deterministic fallback.
		p.log.Warn("strict call failed, falling back",
			"mode", req.Mode, "error", err)
		return p.fallback(req, start, tokens, err.Error(), errKind(err)), nil
	}

	outcome := p.runGuards(req, content)
	if outcome.passed {
		return p.success(req, outcome, start, tokens), nil
	}
	p.log.Debug("strict result rejected",
		"mode", req.Mode, "reason", outcome.reason)

	// ── Repair pass ──────────────────────────────────────────────────
	repairReq := llm.CompletionRequest{
		SystemPrompt: prompt.RepairSystem,
		Messages:     []llm.Message{{Role: "user", Content: prompt.RepairUser(req.Mode, outcome.raw)}},
		Temperature:  repairTemperature,
		MaxTokens:    repairMaxTokens,
		JSONObject:   true,
	}

	content, usage, err = p.complete(ctx, repairReq, p.repairTimeout)
	tokens += usage
	if err != nil {
		if llm.IsCancelled(err) {
			return nil, err
		}
		p.log.Warn("repair call failed, falling back",
			"mode", req.Mode, "error", err)
		return p.fallback(req, start, tokens, err.Error(), errKind(err)), nil
	}

	outcome = p.runGuards(req, content)
	if outcome.passed {
		return p.success(req, outcome, start, tokens), nil
	}
	p.log.Debug("repair result rejected",
		"mode", req.Mode, "reason", outcome.reason)

	return p.fallback(req, start, tokens, outcome.reason, ""), nil
}

// errKind names the classified kind of a failed model call, or "" when
// the error carries no classification.
func errKind(err error) string {
	if k, ok := llm.KindOf(err); ok {
		return k.String()
	}
	return ""
}

// complete issues one model call under an optional per-call deadline,
// with cancellation checks on both sides of the await. A deadline that
// elapses is a timeout failure of the call, never a caller cancellation.
func (p *Pipeline) complete(ctx context.Context, req llm.CompletionRequest, timeout time.Duration) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := p.provider.Complete(callCtx, req)

	if cerr := ctx.Err(); cerr != nil && errors.Is(cerr, context.Canceled) {
		return "", 0, context.Canceled
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &llm.Error{Kind: llm.KindTimeout, Message: "per-call deadline exceeded", Err: err}
		}
		return "", 0, err
	}
	return resp.Content, resp.Usage.TotalTokens, nil
}

// runGuards feeds content through StructureGuard, ModeGuard, and
// DiffGuard in order and collapses the verdicts.
func (p *Pipeline) runGuards(req editor.Request, content string) guardOutcome {
	parsed := parse.Parse(content, req.Mode)
	if !parsed.Valid {
		return guardOutcome{reason: "structure: " + parsed.Reason, raw: parsed.Raw}
	}

	if ok, violations := guard.CheckMode(parsed.Output, req.Original, req.Mode); !ok {
		return guardOutcome{
			output: parsed.Output,
			reason: "mode: " + violations[0].Detail,
			raw:    parsed.Raw,
		}
	}

	cons := editor.ConstraintsFor(req.Mode)
	summary, violations := guard.EvaluateDiff(req.Original, parsed.Output, cons, req.Glossary)
	if !summary.Passed {
		return guardOutcome{
			output:  parsed.Output,
			summary: summary,
			reason:  "safety: " + violations[0].Detail,
			raw:     parsed.Raw,
		}
	}

	return guardOutcome{output: parsed.Output, summary: summary, passed: true, raw: parsed.Raw}
}

// success emits the terminal Success state.
func (p *Pipeline) success(req editor.Request, outcome guardOutcome, start time.Time, tokens int) *editor.EditedText {
	return &editor.EditedText{
		Original: req.Original,
		Edited:   outcome.output.RenderedText(),
		Report: editor.EditReport{
			Replacements: outcome.output.Replacements(),
			Safety:       outcome.summary,
			ModelUsed:    p.model,
			LatencyMs:    time.Since(start).Milliseconds(),
			TokensUsed:   tokens,
		},
	}
}

// fallback emits the terminal Fallback state: deterministic cleanup of
// the original, never a model answer. The measured ratios of the
// fallback text are reported for diagnostics, with Passed pinned false.
// kind is the classified model-error kind when a failed call (rather
// than a guard rejection) forced the fallback.
func (p *Pipeline) fallback(req editor.Request, start time.Time, tokens int, reason, kind string) *editor.EditedText {
	edited := postproc.Process(req.Original, req.Glossary, req.Mode)
	if edited == "" {
		edited = req.Original
	}

	summary, _ := guard.EvaluateDiff(req.Original, editor.Edited{Text: edited}, editor.ConstraintsFor(req.Mode), req.Glossary)
	summary.Passed = false
	summary.FallbackTriggered = true

	return &editor.EditedText{
		Original: req.Original,
		Edited:   edited,
		Report: editor.EditReport{
			Replacements:  []editor.Replacement{},
			Safety:        summary,
			ModelUsed:     fallbackModelName,
			LatencyMs:     time.Since(start).Milliseconds(),
			TokensUsed:    tokens,
			FailureDetail: reason,
			FailureKind:   kind,
		},
	}
}
