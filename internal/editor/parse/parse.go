// Package parse turns a raw model response into a mode-tagged
// [editor.ParsedOutput], tolerating the malformations models commonly
// produce: markdown code fences, non-canonical key names, and extra
// prose-free wrappers.
//
// Parsing never panics and never returns a Go error — the result is
// either Valid with a parsed output or Invalid with a reason, and the
// pipeline treats Invalid as a repairable failure.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/voxlane/redraft/internal/editor"
)

// Result is the outcome of one parse attempt.
type Result struct {
	// Output is the parsed value when Valid is true.
	Output editor.ParsedOutput

	// Valid reports whether parsing succeeded.
	Valid bool

	// Reason describes the failure when Valid is false.
	Reason string

	// Raw is the (fence-stripped) content that was parsed, kept for the
	// Repair prompt and debug records.
	Raw string
}

// Key aliases accepted by the tolerant pass. Fixed lists — adding a key
// is a deliberate code change, not reflection.
var (
	bulletKeys = []string{"bullets", "points", "notes", "items", "key_points"}
	editedKeys = []string{"edited_text", "cleaned", "cleaned_text", "cleaned_transcription", "output", "result"}

	// skipKeys are never accepted as the edited text in the
	// longest-string fallback: they name inputs or annotations.
	skipKeys = map[string]bool{
		"original": true, "raw": true, "input": true,
		"source": true, "reason": true, "from": true, "to": true,
	}
)

// strict shapes for the canonical schema.

type strictNotes struct {
	Bullets        []string               `json:"bullets"`
	Replacements   []editor.Replacement   `json:"replacements"`
	UncertainSpans []editor.UncertainSpan `json:"uncertain_spans"`
}

type strictEdited struct {
	EditedText     string                 `json:"edited_text"`
	Replacements   []editor.Replacement   `json:"replacements"`
	UncertainSpans []editor.UncertainSpan `json:"uncertain_spans"`
}

// Parse decodes content into the shape expected for mode. It first
// strips a surrounding markdown code fence, then attempts a strict
// decode of the canonical schema, then falls back to a tolerant pass
// over a generic key/value map.
func Parse(content string, mode editor.OutputMode) Result {
	raw := StripFence(content)
	if strings.TrimSpace(raw) == "" {
		return Result{Reason: "empty response", Raw: raw}
	}

	if mode == editor.ModeNotes {
		return parseNotes(raw)
	}
	return parseEdited(raw)
}

// StripFence removes a leading markdown code fence (optionally with a
// language tag on the same line) and, when present, the matching closing
// fence. A missing closing fence is tolerated.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// Drop a language tag on the fence line, but keep content that
		// starts on the same line as the fence.
		line, remainder, found := strings.Cut(rest, "\n")
		switch {
		case found && isLangTag(strings.TrimSpace(line)):
			s = remainder
		case found:
			s = rest
		default:
			s = strings.TrimPrefix(rest, "json")
		}
	}
	if before, ok := strings.CutSuffix(strings.TrimSpace(s), "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

// isLangTag reports whether s looks like a fence language tag ("json",
// "JSON5", …) rather than content: short and alphanumeric, possibly
// empty.
func isLangTag(s string) bool {
	if len(s) > 16 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func parseNotes(raw string) Result {
	var st strictNotes
	if err := json.Unmarshal([]byte(raw), &st); err == nil && len(nonEmpty(st.Bullets)) > 0 {
		return Result{
			Output: editor.Notes{Bullets: nonEmpty(st.Bullets), Repl: st.Replacements, Spans: st.UncertainSpans},
			Valid:  true,
			Raw:    raw,
		}
	}

	// Tolerant pass: first non-empty string array under any known key.
	generic := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return Result{Reason: "content is not a JSON object", Raw: raw}
	}
	for _, key := range bulletKeys {
		if bullets := stringSlice(generic[key]); len(bullets) > 0 {
			return Result{
				Output: editor.Notes{Bullets: bullets, Repl: replacements(generic), Spans: uncertainSpans(generic)},
				Valid:  true,
				Raw:    raw,
			}
		}
	}
	return Result{Reason: "no non-empty bullet list found", Raw: raw}
}

func parseEdited(raw string) Result {
	var st strictEdited
	if err := json.Unmarshal([]byte(raw), &st); err == nil && st.EditedText != "" {
		return Result{
			Output: editor.Edited{Text: st.EditedText, Repl: st.Replacements, Spans: st.UncertainSpans},
			Valid:  true,
			Raw:    raw,
		}
	}

	generic := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return Result{Reason: "content is not a JSON object", Raw: raw}
	}

	// Preferred key aliases first.
	for _, key := range editedKeys {
		if s, ok := generic[key].(string); ok && strings.TrimSpace(s) != "" {
			return Result{
				Output: editor.Edited{Text: s, Repl: replacements(generic), Spans: uncertainSpans(generic)},
				Valid:  true,
				Raw:    raw,
			}
		}
	}

	// Last resort: longest string value under a non-skiplisted key.
	longest := ""
	for key, v := range generic {
		s, ok := v.(string)
		if !ok || skipKeys[strings.ToLower(key)] {
			continue
		}
		if len(s) > len(longest) {
			longest = s
		}
	}
	if strings.TrimSpace(longest) != "" {
		return Result{
			Output: editor.Edited{Text: longest, Repl: replacements(generic), Spans: uncertainSpans(generic)},
			Valid:  true,
			Raw:    raw,
		}
	}
	return Result{Reason: "no non-empty edited text found", Raw: raw}
}

// nonEmpty filters blank strings out of a bullet list.
func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// stringSlice coerces a decoded JSON value into a non-empty []string,
// returning nil when the value has any other shape.
func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// replacements extracts well-formed advisory replacements, ignoring
// anything malformed.
func replacements(generic map[string]any) []editor.Replacement {
	arr, ok := generic["replacements"].([]any)
	if !ok {
		return nil
	}
	var out []editor.Replacement
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		from, _ := m["from"].(string)
		to, _ := m["to"].(string)
		if from != "" {
			out = append(out, editor.Replacement{From: from, To: to})
		}
	}
	return out
}

// uncertainSpans extracts well-formed advisory uncertain spans.
func uncertainSpans(generic map[string]any) []editor.UncertainSpan {
	arr, ok := generic["uncertain_spans"].([]any)
	if !ok {
		return nil
	}
	var out []editor.UncertainSpan
	for _, el := range arr {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		span, _ := m["span"].(string)
		reason, _ := m["reason"].(string)
		if span != "" {
			out = append(out, editor.UncertainSpan{Span: span, Reason: reason})
		}
	}
	return out
}
