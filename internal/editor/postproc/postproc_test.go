package postproc_test

import (
	"testing"

	"github.com/voxlane/redraft/internal/dictionary"
	"github.com/voxlane/redraft/internal/editor"
	"github.com/voxlane/redraft/internal/editor/postproc"
)

func TestProcess_WhitespaceNormalisation(t *testing.T) {
	t.Parallel()

	got := postproc.Process("hello   there\r\nfriend\n\n\n\nbye", nil, editor.ModeClean)
	want := "Hello there\nfriend\n\nbye."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_AliasSubstitution(t *testing.T) {
	t.Parallel()

	glossary := []dictionary.Term{
		{Term: "ClockoSocket", Aliases: []string{"clocko socket", "cloco socket"}, CaseSensitive: true},
		{Term: "Q3", Aliases: []string{"queue three"}},
	}

	got := postproc.Process("we ship clocko socket in queue three", glossary, editor.ModeClean)
	want := "We ship ClockoSocket in Q3."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_AliasWordBoundary(t *testing.T) {
	t.Parallel()

	glossary := []dictionary.Term{{Term: "Go", Aliases: []string{"go"}, CaseSensitive: true}}

	// "go" inside "cargo" must not be replaced.
	got := postproc.Process("the cargo must go now", glossary, editor.ModeClean)
	want := "The cargo must Go now."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_PunctuationCleanup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"wait , what ?", "Wait, what?"},
		{"really??", "Really?"},
		{"done..", "Done."},
		{"so,,then", "So, then."},
		{"one.two", "One. Two."},
	}
	for _, tc := range cases {
		if got := postproc.Process(tc.in, nil, editor.ModeClean); got != tc.want {
			t.Errorf("Process(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProcess_ScenarioOutputs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		in       string
		glossary []dictionary.Term
		want     string
	}{
		{"capitalise and close sentence", "hello world", nil, "Hello world."},
		{"numbers as words untouched", "revenue was two million", nil, "Revenue was two million."},
		{
			"glossary no-op when canonical present",
			"we use ClockoSocket daily",
			[]dictionary.Term{{Term: "ClockoSocket", CaseSensitive: true}},
			"We use ClockoSocket daily.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := postproc.Process(tc.in, tc.glossary, editor.ModeClean); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestProcess_NotesBullets(t *testing.T) {
	t.Parallel()

	got := postproc.Process("we should ship faster. the budget is fine. ok", nil, editor.ModeNotes)
	want := "- We should ship faster\n- The budget is fine"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_NotesNoQualifyingSegment(t *testing.T) {
	t.Parallel()

	got := postproc.Process("ok. fine", nil, editor.ModeNotes)
	want := "- Ok. Fine"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	t.Parallel()

	glossary := []dictionary.Term{
		{Term: "ClockoSocket", Aliases: []string{"clocko socket"}, CaseSensitive: true},
	}
	inputs := []string{
		"um so we  ship clocko socket , on monday",
		"hello world",
		"we should ship faster. the budget is fine. ok",
		"one.two..three",
		"   ",
	}
	for _, mode := range []editor.OutputMode{editor.ModeClean, editor.ModeNotes, editor.ModeVerbatim} {
		for _, in := range inputs {
			once := postproc.Process(in, glossary, mode)
			twice := postproc.Process(once, glossary, mode)
			if once != twice {
				t.Errorf("mode %s input %q: once %q != twice %q", mode, in, once, twice)
			}
		}
	}
}
