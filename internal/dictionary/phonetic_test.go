package dictionary_test

import (
	"testing"

	"github.com/voxlane/redraft/internal/dictionary"
)

func TestDetectMisheard_FlagsSimilarToken(t *testing.T) {
	t.Parallel()

	d := dictionary.NewDetector()
	terms := []dictionary.Term{{Term: "Eldrinax"}}

	hints := d.DetectMisheard("the wizard eldrinacks awaits", terms)
	if len(hints) != 1 {
		t.Fatalf("hints = %+v", hints)
	}
	if hints[0].Token != "eldrinacks" || hints[0].Term != "Eldrinax" {
		t.Errorf("hint = %+v", hints[0])
	}
	if hints[0].Score <= 0 {
		t.Errorf("score = %v", hints[0].Score)
	}
}

func TestDetectMisheard_ExactMatchesNotFlagged(t *testing.T) {
	t.Parallel()

	d := dictionary.NewDetector()
	terms := []dictionary.Term{{Term: "Eldrinax", Aliases: []string{"eldrinacks"}}}

	// Both the canonical term and a declared alias are already known;
	// neither is a hint.
	if hints := d.DetectMisheard("Eldrinax eldrinacks", terms); len(hints) != 0 {
		t.Errorf("hints = %+v", hints)
	}
}

func TestDetectMisheard_UnrelatedTokensIgnored(t *testing.T) {
	t.Parallel()

	d := dictionary.NewDetector()
	terms := []dictionary.Term{{Term: "Eldrinax"}}

	if hints := d.DetectMisheard("please bring two bananas home", terms); len(hints) != 0 {
		t.Errorf("hints = %+v", hints)
	}
}

func TestDetectMisheard_EmptyInputs(t *testing.T) {
	t.Parallel()

	d := dictionary.NewDetector()
	if hints := d.DetectMisheard("", []dictionary.Term{{Term: "X"}}); hints != nil {
		t.Errorf("hints = %+v", hints)
	}
	if hints := d.DetectMisheard("some text", nil); hints != nil {
		t.Errorf("hints = %+v", hints)
	}
}

func TestDetectMisheard_PunctuationTrimmed(t *testing.T) {
	t.Parallel()

	d := dictionary.NewDetector()
	terms := []dictionary.Term{{Term: "Eldrinax"}}

	hints := d.DetectMisheard("we met eldrinacks.", terms)
	if len(hints) != 1 || hints[0].Token != "eldrinacks" {
		t.Fatalf("hints = %+v", hints)
	}
}
