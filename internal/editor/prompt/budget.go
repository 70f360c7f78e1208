package prompt

import "github.com/voxlane/redraft/internal/dictionary"

// reservedTokens is the safety buffer withheld from every glossary
// prompt budget.
const reservedTokens = 10

// EstimateTokens approximates the token cost of s as ⌈len(s)/4⌉.
// Four characters per token is the conventional rough estimate for the
// models in use; the reserve buffer absorbs the error.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// SelectForBudget returns the highest-priority dictionary entries whose
// cumulative estimated token cost fits within
// budget - reserve - languagePromptCost.
//
// It serves prompt slots with a hard token ceiling, such as an ASR
// engine's initial-prompt window. The main editor prompt does not
// truncate its glossary — user dictionaries are assumed small — so this
// helper is exported for the upstream collaborator rather than called on
// the edit path.
//
// entries should come from [dictionary.Document.SortByPriority]. The
// returned slice preserves that order. languagePromptCost is the token
// cost already committed to a language hint sharing the same window.
func SelectForBudget(entries []dictionary.Entry, budget, languagePromptCost int) []dictionary.Entry {
	available := budget - reservedTokens - languagePromptCost
	if available <= 0 {
		return nil
	}

	var out []dictionary.Entry
	used := 0
	for _, e := range entries {
		cost := EstimateTokens(e.Term)
		if used+cost > available {
			break
		}
		used += cost
		out = append(out, e)
	}
	return out
}
