// Package guard validates parsed model output before it may replace the
// user's words: per-mode shape rules (ModeGuard) and numeric diff bounds
// with glossary and number preservation (DiffGuard).
//
// Both guards collect every violation instead of short-circuiting, so
// debug records show the full picture of why a response was rejected.
package guard

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/voxlane/redraft/internal/editor"
)

// Violation describes one failed validation rule.
type Violation struct {
	// Rule is a stable identifier, e.g. "notes.banned_prefix".
	Rule string

	// Detail is a human-readable explanation for debug records.
	Detail string
}

const (
	maxBullets     = 8
	maxBulletLen   = 160
	maxCleanGrowth = 1.3
	maxEmailRunes  = 5000
	maxSlackRunes  = 2000
	maxBulletStops = 2
)

// bannedBulletPrefixes are meta-commentary openers a bullet must not
// start with (case-insensitive).
var bannedBulletPrefixes = []string{
	"here are", "key points", "the speaker", "this transcription",
	"based on", "the following", "summary of", "notes from",
	"in this", "the main",
}

// CheckMode applies the per-mode shape rules to out. It returns whether
// all rules passed and the list of violations found.
func CheckMode(out editor.ParsedOutput, original string, mode editor.OutputMode) (bool, []Violation) {
	var v []Violation
	switch mode {
	case editor.ModeNotes:
		v = checkNotes(out)
	case editor.ModeVerbatim:
		v = checkVerbatim(out, original)
	case editor.ModeClean:
		v = checkClean(out, original)
	case editor.ModeEmail:
		v = checkLength(out, "email", maxEmailRunes)
	case editor.ModeSlack:
		v = checkLength(out, "slack", maxSlackRunes)
	default:
		v = append(v, Violation{Rule: "mode.unknown", Detail: fmt.Sprintf("unknown mode %q", mode)})
	}
	return len(v) == 0, v
}

func checkNotes(out editor.ParsedOutput) []Violation {
	notes, ok := out.(editor.Notes)
	if !ok {
		return []Violation{{Rule: "notes.shape", Detail: "expected a bullet list"}}
	}

	var v []Violation
	if n := len(notes.Bullets); n < 1 || n > maxBullets {
		v = append(v, Violation{Rule: "notes.count", Detail: fmt.Sprintf("%d bullets, want 1..%d", n, maxBullets)})
	}
	for i, b := range notes.Bullets {
		if utf8.RuneCountInString(b) > maxBulletLen {
			v = append(v, Violation{Rule: "notes.length", Detail: fmt.Sprintf("bullet %d exceeds %d chars", i, maxBulletLen)})
		}
		lower := strings.ToLower(strings.TrimSpace(b))
		for _, prefix := range bannedBulletPrefixes {
			if strings.HasPrefix(lower, prefix) {
				v = append(v, Violation{Rule: "notes.banned_prefix", Detail: fmt.Sprintf("bullet %d starts with %q", i, prefix)})
				break
			}
		}
		if strings.Contains(b, "\n\n") {
			v = append(v, Violation{Rule: "notes.paragraph", Detail: fmt.Sprintf("bullet %d contains a paragraph break", i)})
		}
		if stops := strings.Count(b, ".") + strings.Count(b, "!") + strings.Count(b, "?"); stops > maxBulletStops {
			v = append(v, Violation{Rule: "notes.multi_sentence", Detail: fmt.Sprintf("bullet %d has %d sentence marks", i, stops)})
		}
	}
	return v
}

func checkClean(out editor.ParsedOutput, original string) []Violation {
	edited := out.RenderedText()
	var v []Violation
	if edited == "" {
		v = append(v, Violation{Rule: "clean.empty", Detail: "edited text is empty"})
		return v
	}
	origLen := utf8.RuneCountInString(original)
	if origLen > 0 {
		ratio := float64(utf8.RuneCountInString(edited)) / float64(origLen)
		if ratio > maxCleanGrowth {
			v = append(v, Violation{Rule: "clean.growth", Detail: fmt.Sprintf("edited is %.2fx original, max %.1fx", ratio, maxCleanGrowth)})
		}
	}
	return v
}

// checkVerbatim requires the edited text to differ from the original in
// punctuation and casing only: the lowercase word sequences, with every
// character outside letters/digits/whitespace stripped from each token,
// must be identical.
func checkVerbatim(out editor.ParsedOutput, original string) []Violation {
	edited := out.RenderedText()
	if edited == "" {
		return []Violation{{Rule: "verbatim.empty", Detail: "edited text is empty"}}
	}

	origWords := coreWords(original)
	editWords := coreWords(edited)
	if len(origWords) != len(editWords) {
		return []Violation{{
			Rule:   "verbatim.words",
			Detail: fmt.Sprintf("word count changed: %d -> %d", len(origWords), len(editWords)),
		}}
	}
	for i := range origWords {
		if origWords[i] != editWords[i] {
			return []Violation{{
				Rule:   "verbatim.words",
				Detail: fmt.Sprintf("word %d changed: %q -> %q", i, origWords[i], editWords[i]),
			}}
		}
	}
	return nil
}

func checkLength(out editor.ParsedOutput, mode string, max int) []Violation {
	edited := out.RenderedText()
	var v []Violation
	if edited == "" {
		v = append(v, Violation{Rule: mode + ".empty", Detail: "edited text is empty"})
		return v
	}
	if n := utf8.RuneCountInString(edited); n > max {
		v = append(v, Violation{Rule: mode + ".length", Detail: fmt.Sprintf("%d chars exceeds %d", n, max)})
	}
	return v
}

// coreWords lowercases s, splits on whitespace, and strips every rune
// outside letters/digits from each token. Tokens that strip to nothing
// are dropped.
func coreWords(s string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		stripped := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, tok)
		if stripped != "" {
			out = append(out, stripped)
		}
	}
	return out
}
