// Package postproc is the deterministic, language-neutral fallback
// cleanup applied to the original transcription when the model passes
// fail. It is pure: no I/O, no randomness, and applying it twice yields
// the same result as applying it once.
package postproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
)

var (
	spaceRuns      = regexp.MustCompile(` {2,}`)
	newlineRuns    = regexp.MustCompile(`\n{3,}`)
	spaceBeforeP   = regexp.MustCompile(` +([.,!?:;])`)
	noSpaceAfterP  = regexp.MustCompile(`([.,!?:;])(\p{L})`)
	minNoteSegment = 10
)

// Process applies the rule-based cleanup to text: whitespace
// normalisation, glossary alias substitution, punctuation cleanup,
// sentence capitalisation, and — for notes mode — bullet formatting.
func Process(text string, glossary []dictionary.Term, mode editor.OutputMode) string {
	s := normalizeWhitespace(text)
	s = substituteAliases(s, glossary)
	s = cleanPunctuation(s)
	if mode != editor.ModeNotes {
		// Bulleted output carries no terminal period; adding one here
		// would break idempotency once the text is re-processed.
		s = ensureTerminal(s)
	}
	s = capitalizeSentences(s)
	if mode == editor.ModeNotes {
		s = bulletize(s)
	}
	return s
}

// normalizeWhitespace collapses runs of spaces to one, normalises CR and
// CRLF to LF, collapses 3+ newlines to 2, and trims.
func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// substituteAliases replaces every alias of every glossary term with the
// canonical term, using word-boundary matching and the term's case
// policy.
func substituteAliases(s string, glossary []dictionary.Term) string {
	for _, t := range glossary {
		for _, alias := range t.Aliases {
			if strings.TrimSpace(alias) == "" {
				continue
			}
			pattern := `\b` + regexp.QuoteMeta(alias) + `\b`
			if !t.CaseSensitive {
				pattern = `(?i)` + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				continue
			}
			s = re.ReplaceAllString(s, t.Term)
		}
	}
	return s
}

// cleanPunctuation removes spaces before sentence punctuation, ensures a
// single space after punctuation followed by a letter, and collapses
// doubled marks.
func cleanPunctuation(s string) string {
	s = spaceBeforeP.ReplaceAllString(s, "$1")
	s = noSpaceAfterP.ReplaceAllString(s, "$1 $2")
	for _, pair := range [][2]string{{"..", "."}, {",,", ","}, {"!!", "!"}, {"??", "?"}} {
		for strings.Contains(s, pair[0]) {
			s = strings.ReplaceAll(s, pair[0], pair[1])
		}
	}
	return s
}

// ensureTerminal appends a period when the text ends in a letter or
// digit, so the fallback always reads as a finished sentence.
func ensureTerminal(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	last := runes[len(runes)-1]
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		return s + "."
	}
	return s
}

// capitalizeSentences upper-cases the first letter of the string and
// every letter that follows a sentence-ending mark plus whitespace.
func capitalizeSentences(s string) string {
	runes := []rune(s)
	capitalizeNext := true
	sawStop := false
	for i, r := range runes {
		switch {
		case r == '.' || r == '!' || r == '?':
			sawStop = true
		case unicode.IsSpace(r):
			if sawStop {
				capitalizeNext = true
			}
		case unicode.IsLetter(r):
			if capitalizeNext {
				runes[i] = unicode.ToUpper(r)
			}
			capitalizeNext = false
			sawStop = false
		default:
			sawStop = false
			capitalizeNext = capitalizeNext && !unicode.IsDigit(r)
		}
	}
	return string(runes)
}

// bulletize splits on sentence-ending punctuation and renders each
// segment longer than minNoteSegment characters as a "- " bullet. When
// no segment qualifies, the whole text becomes a single bullet. Text
// that is already fully bulleted is left unchanged, which keeps the
// transformation idempotent.
func bulletize(s string) string {
	if s == "" || isBulleted(s) {
		return s
	}

	segments := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var bullets []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if len([]rune(seg)) > minNoteSegment {
			bullets = append(bullets, "- "+seg)
		}
	}
	if len(bullets) == 0 {
		return "- " + s
	}
	return strings.Join(bullets, "\n")
}

// isBulleted reports whether every line of s starts with a "- " prefix.
func isBulleted(s string) bool {
	if s == "" {
		return false
	}
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "- ") {
			return false
		}
	}
	return true
}
