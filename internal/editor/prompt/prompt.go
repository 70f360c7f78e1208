// Package prompt builds the system and user prompts for the edit
// pipeline's model calls.
//
// The system prompt is selected per mode and carries a short role
// statement, a numbered rules block, an optional DICTIONARY block listing
// the glossary, and the exact JSON schema the model must answer with. The
// user prompt is a structured JSON payload so that raw transcription
// text can never be confused with instructions.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
)

// roleStatement opens every system prompt.
const roleStatement = "You are a transcription post-editor. You receive raw speech-to-text output and return a cleaned-up version as JSON."

// modeRules holds the numbered rules block per mode.
var modeRules = map[editor.OutputMode][]string{
	editor.ModeVerbatim: {
		"Fix punctuation and capitalisation ONLY.",
		"Do NOT add, remove, or reorder any word.",
		"Do NOT correct grammar or word choice.",
		"Keep every number exactly as spoken.",
	},
	editor.ModeClean: {
		"Remove filler words (um, uh, you know, like) and stutters.",
		"Fix obvious speech-recognition errors and punctuation.",
		"Preserve the speaker's wording, tone, and sentence order.",
		"Do NOT add information, names, or numbers that were not spoken.",
		"Keep every number exactly as spoken.",
	},
	editor.ModeNotes: {
		"Condense the transcription into 1 to 8 short bullet points.",
		"Each bullet is a single plain statement under 160 characters.",
		"Start each bullet directly with its content, never with a preamble.",
		"Do NOT add information or numbers that were not spoken.",
	},
	editor.ModeEmail: {
		"Rewrite the transcription as a short, polite email body.",
		"Keep the speaker's intent and all factual content.",
		"Remove filler words and false starts.",
		"Do NOT invent recipients, sign-offs with names, or facts.",
		"Keep every number exactly as spoken.",
	},
	editor.ModeSlack: {
		"Rewrite the transcription as a casual, concise chat message.",
		"Keep the speaker's intent and all factual content.",
		"Remove filler words and false starts.",
		"Do NOT add information or numbers that were not spoken.",
	},
}

// schemaFor returns the REQUIRED JSON OUTPUT FORMAT block body for mode.
func schemaFor(mode editor.OutputMode) string {
	if mode == editor.ModeNotes {
		return `{
  "bullets": ["<1 to 8 bullet strings>"],
  "replacements": [{"from": "<original>", "to": "<replacement>"}],
  "uncertain_spans": [{"span": "<text>", "reason": "<why>"}]
}`
	}
	return `{
  "edited_text": "<the full edited text>",
  "replacements": [{"from": "<original>", "to": "<replacement>"}],
  "uncertain_spans": [{"span": "<text>", "reason": "<why>"}]
}`
}

// System builds the mode-specific system prompt. The DICTIONARY block is
// present only when glossary is non-empty.
func System(mode editor.OutputMode, glossary []dictionary.Term) string {
	var sb strings.Builder
	sb.WriteString(roleStatement)
	sb.WriteString("\n\nRules:\n")
	for i, rule := range modeRules[mode] {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}

	if len(glossary) > 0 {
		sb.WriteString("\nDICTIONARY — these terms are spelled exactly as listed and must be kept:\n")
		for _, t := range glossary {
			if len(t.Aliases) > 0 {
				fmt.Fprintf(&sb, "- %s (may be misheard as: %s)\n", t.Term, strings.Join(t.Aliases, ", "))
			} else {
				fmt.Fprintf(&sb, "- %s\n", t.Term)
			}
		}
	}

	sb.WriteString("\nREQUIRED JSON OUTPUT FORMAT:\n")
	sb.WriteString(schemaFor(mode))
	sb.WriteString("\n\nOutput ONLY the JSON object. No other text.")
	return sb.String()
}

// userPayload is the structured user-prompt body.
type userPayload struct {
	RawTranscription string             `json:"raw_transcription"`
	OutputMode       string             `json:"output_mode"`
	Glossary         []glossaryEntry    `json:"glossary,omitempty"`
	Language         string             `json:"language,omitempty"`
	Constraints      payloadConstraints `json:"constraints"`
	UncertainTokens  []string           `json:"uncertain_tokens,omitempty"`
}

type glossaryEntry struct {
	Term          string `json:"term"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type payloadConstraints struct {
	MaxInsertionPercent int  `json:"max_insertion_percent"`
	EnforceGlossary     bool `json:"enforce_glossary"`
	PreserveNumbers     bool `json:"preserve_numbers"`
}

// User builds the structured user prompt for req.
func User(req editor.Request) string {
	cons := editor.ConstraintsFor(req.Mode)
	payload := userPayload{
		RawTranscription: req.Original,
		OutputMode:       string(req.Mode),
		Language:         req.Language,
		Constraints: payloadConstraints{
			MaxInsertionPercent: int(cons.MaxCharInsertionRatio * 100),
			EnforceGlossary:     cons.EnforceGlossary,
			PreserveNumbers:     cons.PreserveNumbers,
		},
	}
	for _, t := range req.Glossary {
		payload.Glossary = append(payload.Glossary, glossaryEntry{Term: t.Term, CaseSensitive: t.CaseSensitive})
	}
	for _, h := range req.Hints {
		payload.UncertainTokens = append(payload.UncertainTokens, h.Token)
	}

	// Marshalling a flat struct of strings and bools cannot fail.
	buf, _ := json.Marshal(payload)
	return string(buf)
}

// RepairSystem is the fixed system prompt for the Repair pass.
const RepairSystem = "You are a JSON repair assistant. You receive malformed output from another model and the schema it was supposed to follow. Reply with a corrected JSON object that follows the schema exactly. Output ONLY the JSON object. No other text."

// RepairUser builds the Repair user prompt quoting the malformed output
// and the required schema for mode.
func RepairUser(mode editor.OutputMode, malformed string) string {
	var sb strings.Builder
	sb.WriteString("The following output does not match the required schema:\n---\n")
	sb.WriteString(malformed)
	sb.WriteString("\n---\n\nRequired schema:\n")
	sb.WriteString(schemaFor(mode))
	return sb.String()
}
