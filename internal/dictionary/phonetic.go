package dictionary

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// DetectorOption is a functional option for configuring a [Detector].
type DetectorOption func(*Detector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for
// a phonetically-aligned token to be flagged. Default: 0.70.
func WithPhoneticThreshold(threshold float64) DetectorOption {
	return func(d *Detector) { d.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic overlap exists. Default: 0.85.
func WithFuzzyThreshold(threshold float64) DetectorOption {
	return func(d *Detector) { d.fuzzyThreshold = threshold }
}

// Detector flags tokens of a raw transcript that sound like a dictionary
// term without matching the term or one of its aliases exactly. The
// editor forwards flagged tokens to the model as advisory
// uncertain-token hints; they never feed a safety decision.
//
// Matching combines Double Metaphone code overlap with Jaro-Winkler
// ranking, with a pure Jaro-Winkler fallback at a stricter threshold.
// A Detector is read-only after construction and safe for concurrent use.
type Detector struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// NewDetector returns a [Detector] configured with the supplied options.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Hint pairs a flagged token with the term it plausibly mishears.
type Hint struct {
	// Token is the transcript token as it appeared, punctuation trimmed.
	Token string

	// Term is the canonical dictionary term the token resembles.
	Term string

	// Score is the Jaro-Winkler similarity that ranked the match.
	Score float64
}

// DetectMisheard scans text for tokens that plausibly mishear one of
// terms. Tokens equal to a term or any of its aliases (under the term's
// case policy) are never flagged — those are handled by exact alias
// substitution. Each token is reported at most once, for its best-scoring
// term. Hints preserve token order.
func (d *Detector) DetectMisheard(text string, terms []Term) []Hint {
	if len(terms) == 0 {
		return nil
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	var hints []Hint
	for _, raw := range tokens {
		token := strings.Trim(raw, ".,;:!?\"'()")
		if token == "" {
			continue
		}

		var best Hint
		for _, t := range terms {
			if exactKnown(token, t) {
				best = Hint{}
				break
			}
			score, ok := d.resembles(token, t.Term)
			if ok && score > best.Score {
				best = Hint{Token: token, Term: t.Term, Score: score}
			}
		}
		if best.Token != "" {
			hints = append(hints, best)
		}
	}
	return hints
}

// exactKnown reports whether token already equals the term or one of its
// aliases under the term's case policy.
func exactKnown(token string, t Term) bool {
	eq := func(a, b string) bool {
		if t.CaseSensitive {
			return a == b
		}
		return strings.EqualFold(a, b)
	}
	if eq(token, t.Term) {
		return true
	}
	for _, a := range t.Aliases {
		if eq(token, a) {
			return true
		}
	}
	return false
}

// resembles scores token against term. A phonetic-code overlap admits the
// lower phonetic threshold; otherwise the stricter fuzzy threshold
// applies. Multi-word terms are compared per word and the best pairwise
// combination wins.
func (d *Detector) resembles(token, term string) (float64, bool) {
	tokenLower := strings.ToLower(token)
	termLower := strings.ToLower(term)

	termWords := strings.Fields(termLower)
	phonetic := false
	score := 0.0

	for _, tw := range termWords {
		if codesOverlap(tokenLower, tw) {
			phonetic = true
		}
		if s := matchr.JaroWinkler(tokenLower, tw, true); s > score {
			score = s
		}
	}
	if s := matchr.JaroWinkler(tokenLower, termLower, true); s > score {
		score = s
	}

	if phonetic {
		return score, score >= d.phoneticThreshold
	}
	return score, score >= d.fuzzyThreshold
}

// codesOverlap reports whether the Double Metaphone codes of a and b
// share a non-empty code.
func codesOverlap(a, b string) bool {
	a1, a2 := matchr.DoubleMetaphone(a)
	b1, b2 := matchr.DoubleMetaphone(b)
	for _, x := range []string{a1, a2} {
		if x == "" {
			continue
		}
		for _, y := range []string{b1, b2} {
			if y != "" && x == y {
				return true
			}
		}
	}
	return false
}
