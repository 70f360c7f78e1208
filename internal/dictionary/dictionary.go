// Package dictionary provides the user-dictionary snapshot consumed by
// the editor pipeline.
//
// The persistence layer (an external collaborator) owns dictionary
// editing and identity; this package reads the interchange document,
// validates it, and exposes immutable [Term] snapshots. It also hosts the
// phonetic misheard-span detector that flags tokens of a raw transcript
// which sound like a dictionary term without matching it exactly.
package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Term is a single dictionary term as consumed by the editor: the
// canonical spelling, the spellings it is commonly misheard as, and the
// matching policy.
type Term struct {
	// Term is the canonical spelling.
	Term string `json:"term"`

	// Aliases are alternative or misheard spellings, in priority order.
	Aliases []string `json:"aliases,omitempty"`

	// CaseSensitive selects exact-case matching for this term. When
	// false, occurrence checks and alias substitution ignore case.
	CaseSensitive bool `json:"case_sensitive"`
}

// Entry is a full dictionary entry as stored in the interchange document.
type Entry struct {
	ID            string    `json:"id"`
	Term          string    `json:"term"`
	Aliases       []string  `json:"aliases"`
	Category      string    `json:"category"`
	CaseSensitive bool      `json:"case_sensitive"`
	Priority      int       `json:"priority"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Document is the dictionary import/export format produced by the
// persistence layer. The editor treats it as read-only.
type Document struct {
	Version   int       `json:"version"`
	Terms     []Entry   `json:"terms"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentVersion is the current interchange format version.
const DocumentVersion = 1

// Priority bounds for [Entry.Priority].
const (
	MinPriority = 1
	MaxPriority = 5
)

// Load reads and validates a dictionary document from the file at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dictionary: open %q: %w", path, err)
	}
	defer f.Close()

	doc, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("dictionary: parse %q: %w", path, err)
	}
	return doc, nil
}

// LoadFromReader decodes a dictionary document from r and validates it.
func LoadFromReader(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks a document for coherence. It returns a joined error
// listing every failure found.
//
// Rules:
//   - Version must be positive.
//   - Every entry needs a non-empty term.
//   - Entry IDs must be unique and, when present, UUID-shaped.
//   - Terms must be unique under case-insensitive comparison.
//   - Priority must lie in [MinPriority, MaxPriority] (0 is accepted and
//     sorts as MinPriority in [Document.SortByPriority]).
func Validate(doc *Document) error {
	var errs []error

	if doc.Version <= 0 {
		errs = append(errs, fmt.Errorf("version %d is invalid", doc.Version))
	}

	seenTerm := make(map[string]int, len(doc.Terms))
	seenID := make(map[string]int, len(doc.Terms))
	for i, e := range doc.Terms {
		if strings.TrimSpace(e.Term) == "" {
			errs = append(errs, fmt.Errorf("terms[%d]: term must not be empty", i))
			continue
		}
		key := strings.ToLower(e.Term)
		if j, dup := seenTerm[key]; dup {
			errs = append(errs, fmt.Errorf("terms[%d]: term %q duplicates terms[%d] (case-insensitive)", i, e.Term, j))
		} else {
			seenTerm[key] = i
		}
		if e.ID != "" {
			if _, err := uuid.Parse(e.ID); err != nil {
				errs = append(errs, fmt.Errorf("terms[%d]: id %q is not a UUID", i, e.ID))
			}
			if j, dup := seenID[e.ID]; dup {
				errs = append(errs, fmt.Errorf("terms[%d]: id %q duplicates terms[%d]", i, e.ID, j))
			} else {
				seenID[e.ID] = i
			}
		}
		if e.Priority != 0 && (e.Priority < MinPriority || e.Priority > MaxPriority) {
			errs = append(errs, fmt.Errorf("terms[%d]: priority %d outside [%d, %d]", i, e.Priority, MinPriority, MaxPriority))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Snapshot converts the document into the ordered [Term] slice the
// editor consumes, preserving document order. Entries keep their declared
// priority for budget selection via [SortByPriority].
func (d *Document) Snapshot() []Term {
	terms := make([]Term, 0, len(d.Terms))
	for _, e := range d.Terms {
		terms = append(terms, Term{
			Term:          e.Term,
			Aliases:       slices.Clone(e.Aliases),
			CaseSensitive: e.CaseSensitive,
		})
	}
	return terms
}

// SortByPriority returns the document's entries ordered by descending
// priority, ties broken by document order. Zero priority sorts as
// [MinPriority].
func (d *Document) SortByPriority() []Entry {
	out := slices.Clone(d.Terms)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return effectivePriority(b) - effectivePriority(a)
	})
	return out
}

func effectivePriority(e Entry) int {
	if e.Priority == 0 {
		return MinPriority
	}
	return e.Priority
}

// Occurs reports whether the term's canonical form appears in text,
// honouring the term's case policy. Matching is substring-based, the
// same containment rule the safety validator applies.
func (t Term) Occurs(text string) bool {
	if t.CaseSensitive {
		return strings.Contains(text, t.Term)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(t.Term))
}
