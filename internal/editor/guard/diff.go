package guard

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
)

// EvaluateDiff measures how far the rendered output drifted from the
// original and checks the safety invariants the mode's constraints
// demand: bounded word churn, bounded character insertion, glossary
// retention, and number preservation.
//
// The returned summary carries the measured ratios regardless of the
// verdict so that debug records and reports can show them.
func EvaluateDiff(original string, out editor.ParsedOutput, cons editor.Constraints, glossary []dictionary.Term) (editor.SafetySummary, []Violation) {
	rendered := out.RenderedText()

	summary := editor.SafetySummary{
		WordChangeRatio:    wordChangeRatio(original, rendered),
		CharInsertionRatio: charInsertionRatio(original, rendered),
		GlossaryEnforced:   glossaryEnforced(original, rendered, glossary),
	}

	var v []Violation
	if summary.WordChangeRatio > cons.MaxWordChangeRatio {
		v = append(v, Violation{
			Rule:   "diff.word_change",
			Detail: fmt.Sprintf("word change ratio %.3f exceeds %.3f", summary.WordChangeRatio, cons.MaxWordChangeRatio),
		})
	}
	if summary.CharInsertionRatio > cons.MaxCharInsertionRatio {
		v = append(v, Violation{
			Rule:   "diff.char_insertion",
			Detail: fmt.Sprintf("char insertion ratio %.3f exceeds %.3f", summary.CharInsertionRatio, cons.MaxCharInsertionRatio),
		})
	}
	if cons.EnforceGlossary && !summary.GlossaryEnforced {
		v = append(v, Violation{Rule: "diff.glossary", Detail: "a required glossary term is missing from the edited text"})
	}
	if cons.PreserveNumbers {
		for _, tok := range hallucinatedNumbers(original, rendered) {
			v = append(v, Violation{
				Rule:   "diff.number",
				Detail: fmt.Sprintf("number %q does not occur in the original", tok),
			})
		}
	}

	summary.Passed = len(v) == 0
	return summary, v
}

// wordChangeRatio is |added ∪ removed| / |original words| over the
// lowercase whitespace-tokenised word *sets*. Token-edge punctuation is
// trimmed so that "q3." and "q3" count as the same word. Zero when the
// original has no words.
func wordChangeRatio(original, edited string) float64 {
	origWords := diffWords(original)
	if len(origWords) == 0 {
		return 0
	}
	origSet := make(map[string]bool, len(origWords))
	for _, w := range origWords {
		origSet[w] = true
	}
	editSet := make(map[string]bool)
	for _, w := range diffWords(edited) {
		editSet[w] = true
	}

	changed := 0
	for w := range origSet {
		if !editSet[w] {
			changed++ // removed
		}
	}
	for w := range editSet {
		if !origSet[w] {
			changed++ // added
		}
	}
	return float64(changed) / float64(len(origWords))
}

// diffWords lowercases s, splits on whitespace, and trims punctuation
// from token edges. Tokens that trim to nothing are dropped.
func diffWords(s string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// charInsertionRatio is the clipped net growth in non-whitespace
// characters relative to the original. Zero when the original is
// whitespace-only.
func charInsertionRatio(original, edited string) float64 {
	origLen := nonWhitespaceLen(original)
	if origLen == 0 {
		return 0
	}
	grown := nonWhitespaceLen(edited) - origLen
	if grown < 0 {
		return 0
	}
	return float64(grown) / float64(origLen)
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// glossaryEnforced reports whether every dictionary term whose canonical
// form occurs in original also occurs in edited. Trivially true for an
// empty glossary.
func glossaryEnforced(original, edited string, glossary []dictionary.Term) bool {
	for _, t := range glossary {
		if t.Occurs(original) && !t.Occurs(edited) {
			return false
		}
	}
	return true
}

// hallucinatedNumbers returns the digit-bearing tokens of edited that do
// not occur as digit-bearing tokens of original. Tokenisation splits on
// whitespace and punctuation.
func hallucinatedNumbers(original, edited string) []string {
	origSet := make(map[string]bool)
	for _, tok := range numberTokens(original) {
		origSet[tok] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, tok := range numberTokens(edited) {
		if !origSet[tok] && !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// numberTokens splits s on any rune that is not a letter or digit and
// returns the tokens containing at least one digit. Tokens are
// lowercased so recasing ("q3" → "Q3") never reads as a new number.
func numberTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if strings.ContainsFunc(f, unicode.IsDigit) {
			out = append(out, f)
		}
	}
	return out
}
