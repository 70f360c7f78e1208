package dictionary_test

import (
	"strings"
	"testing"

	"github.com/voxlane/redraft/internal/dictionary"
)

const validDoc = `{
  "version": 1,
  "terms": [
    {
      "id": "7b0d3c9e-8a1f-4f59-9a6b-2f1c5d4e3a21",
      "term": "ClockoSocket",
      "aliases": ["clocko socket"],
      "category": "product",
      "case_sensitive": true,
      "priority": 5,
      "created_at": "2025-11-02T10:00:00Z",
      "updated_at": "2025-11-02T10:00:00Z"
    },
    {
      "id": "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d",
      "term": "Q3",
      "aliases": [],
      "category": "general",
      "case_sensitive": false,
      "priority": 2,
      "created_at": "2025-11-02T10:00:00Z",
      "updated_at": "2025-11-02T10:00:00Z"
    }
  ],
  "created_at": "2025-11-02T10:00:00Z",
  "updated_at": "2025-11-02T10:00:00Z"
}`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	doc, err := dictionary.LoadFromReader(strings.NewReader(validDoc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if doc.Version != 1 || len(doc.Terms) != 2 {
		t.Fatalf("doc = %+v", doc)
	}

	terms := doc.Snapshot()
	if len(terms) != 2 {
		t.Fatalf("snapshot = %+v", terms)
	}
	if terms[0].Term != "ClockoSocket" || !terms[0].CaseSensitive {
		t.Errorf("terms[0] = %+v", terms[0])
	}
	if len(terms[0].Aliases) != 1 || terms[0].Aliases[0] != "clocko socket" {
		t.Errorf("aliases = %v", terms[0].Aliases)
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  dictionary.Document
		want string
	}{
		{
			name: "bad version",
			doc:  dictionary.Document{Version: 0},
			want: "version",
		},
		{
			name: "empty term",
			doc: dictionary.Document{Version: 1, Terms: []dictionary.Entry{
				{Term: "  "},
			}},
			want: "term must not be empty",
		},
		{
			name: "duplicate term case-insensitive",
			doc: dictionary.Document{Version: 1, Terms: []dictionary.Entry{
				{Term: "Redis"},
				{Term: "redis"},
			}},
			want: "duplicates",
		},
		{
			name: "priority out of range",
			doc: dictionary.Document{Version: 1, Terms: []dictionary.Entry{
				{Term: "Redis", Priority: 6},
			}},
			want: "priority",
		},
		{
			name: "malformed id",
			doc: dictionary.Document{Version: 1, Terms: []dictionary.Entry{
				{Term: "Redis", ID: "not-a-uuid"},
			}},
			want: "not a UUID",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := dictionary.Validate(&tc.doc)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSortByPriority(t *testing.T) {
	t.Parallel()

	doc := dictionary.Document{Version: 1, Terms: []dictionary.Entry{
		{Term: "low", Priority: 1},
		{Term: "unset"},
		{Term: "high", Priority: 5},
		{Term: "mid", Priority: 3},
	}}

	got := doc.SortByPriority()
	var order []string
	for _, e := range got {
		order = append(order, e.Term)
	}
	want := []string{"high", "mid", "low", "unset"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestTermOccurs(t *testing.T) {
	t.Parallel()

	sensitive := dictionary.Term{Term: "ClockoSocket", CaseSensitive: true}
	if !sensitive.Occurs("we use ClockoSocket daily") {
		t.Error("exact case must match")
	}
	if sensitive.Occurs("we use clockosocket daily") {
		t.Error("case-sensitive term must not match lowercased text")
	}

	insensitive := dictionary.Term{Term: "Q3"}
	if !insensitive.Occurs("ship in q3 please") {
		t.Error("case-insensitive term must match any casing")
	}
}
