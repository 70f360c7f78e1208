package guard_test

import (
	"testing"

	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/editor/guard"
)

func cleanConstraints() editor.Constraints {
	return editor.ConstraintsFor(editor.ModeClean)
}

func TestEvaluateDiff_HappyPath(t *testing.T) {
	t.Parallel()

	original := "um so I think we should uh ship it on Q3"
	edited := editor.Edited{Text: "I think we should ship it on Q3."}
	glossary := []dictionary.Term{{Term: "Q3"}}

	summary, violations := guard.EvaluateDiff(original, edited, cleanConstraints(), glossary)
	if !summary.Passed {
		t.Fatalf("expected pass, got violations %+v", violations)
	}
	if !summary.GlossaryEnforced {
		t.Error("glossary must be enforced")
	}
	if summary.WordChangeRatio > 0.40 {
		t.Errorf("word change ratio = %v", summary.WordChangeRatio)
	}
	if summary.CharInsertionRatio != 0 {
		t.Errorf("char insertion ratio = %v, want 0 for shrinking edit", summary.CharInsertionRatio)
	}
}

func TestEvaluateDiff_HallucinatedNumbers(t *testing.T) {
	t.Parallel()

	original := "revenue was two million"
	edited := editor.Edited{Text: "Revenue was 2,000,000 in Q3 2024."}

	summary, violations := guard.EvaluateDiff(original, edited, cleanConstraints(), nil)
	if summary.Passed {
		t.Fatal("hallucinated digits must fail")
	}
	if !hasRule(violations, "diff.number") {
		t.Errorf("want diff.number violation, got %+v", violations)
	}
}

func TestEvaluateDiff_NumbersPreservedPasses(t *testing.T) {
	t.Parallel()

	original := "the budget is 500 euros for 3 weeks"
	edited := editor.Edited{Text: "The budget is 500 euros for 3 weeks."}

	summary, _ := guard.EvaluateDiff(original, edited, cleanConstraints(), nil)
	if !summary.Passed {
		t.Errorf("summary = %+v", summary)
	}
}

func TestEvaluateDiff_GlossaryRetention(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		term     dictionary.Term
		original string
		edited   string
		enforced bool
	}{
		{
			name:     "case-sensitive term dropped",
			term:     dictionary.Term{Term: "ClockoSocket", CaseSensitive: true},
			original: "we use ClockoSocket daily",
			edited:   "We use the socket daily.",
			enforced: false,
		},
		{
			name:     "case-sensitive term kept",
			term:     dictionary.Term{Term: "ClockoSocket", CaseSensitive: true},
			original: "we use ClockoSocket daily",
			edited:   "We use ClockoSocket daily.",
			enforced: true,
		},
		{
			name:     "case-sensitive term lowercased counts as missing",
			term:     dictionary.Term{Term: "ClockoSocket", CaseSensitive: true},
			original: "we use ClockoSocket daily",
			edited:   "We use clockosocket daily.",
			enforced: false,
		},
		{
			name:     "case-insensitive term recased is fine",
			term:     dictionary.Term{Term: "q3"},
			original: "ship in q3 please",
			edited:   "Ship in Q3 please.",
			enforced: true,
		},
		{
			name:     "term absent from original is advisory",
			term:     dictionary.Term{Term: "Kubernetes"},
			original: "we ship on time",
			edited:   "We ship on time.",
			enforced: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			summary, _ := guard.EvaluateDiff(tc.original, editor.Edited{Text: tc.edited}, cleanConstraints(), []dictionary.Term{tc.term})
			if summary.GlossaryEnforced != tc.enforced {
				t.Errorf("glossary_enforced = %v, want %v", summary.GlossaryEnforced, tc.enforced)
			}
		})
	}
}

func TestEvaluateDiff_EmptyGlossaryTriviallyEnforced(t *testing.T) {
	t.Parallel()

	summary, _ := guard.EvaluateDiff("some words", editor.Edited{Text: "Some words."}, cleanConstraints(), nil)
	if !summary.GlossaryEnforced {
		t.Error("empty glossary must report enforced")
	}
}

func TestEvaluateDiff_WhitespaceOriginalRatiosZero(t *testing.T) {
	t.Parallel()

	for _, original := range []string{"", "   ", "\n\t "} {
		summary, _ := guard.EvaluateDiff(original, editor.Edited{Text: "anything"}, cleanConstraints(), nil)
		if summary.WordChangeRatio != 0 {
			t.Errorf("original %q: word change ratio = %v, want 0", original, summary.WordChangeRatio)
		}
		if summary.CharInsertionRatio != 0 {
			t.Errorf("original %q: char insertion ratio = %v, want 0", original, summary.CharInsertionRatio)
		}
	}
}

func TestEvaluateDiff_CharInsertionBound(t *testing.T) {
	t.Parallel()

	original := "short text"
	edited := editor.Edited{Text: "short text plus quite a lot of freshly invented padding"}

	summary, violations := guard.EvaluateDiff(original, edited, cleanConstraints(), nil)
	if summary.Passed {
		t.Fatal("expected failure")
	}
	if !hasRule(violations, "diff.char_insertion") {
		t.Errorf("violations = %+v", violations)
	}
	if summary.CharInsertionRatio <= 0.20 {
		t.Errorf("char insertion ratio = %v", summary.CharInsertionRatio)
	}
}

func TestEvaluateDiff_NotesRendering(t *testing.T) {
	t.Parallel()

	original := "okay so first point is speed and the second point is cost"
	notes := editor.Notes{Bullets: []string{"first point is speed", "second point is cost"}}

	summary, violations := guard.EvaluateDiff(original, notes, editor.ConstraintsFor(editor.ModeNotes), nil)
	if !summary.Passed {
		t.Errorf("summary = %+v, violations = %+v", summary, violations)
	}
}
