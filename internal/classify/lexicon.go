package classify

import (
	"fmt"
	"strings"

	"tasktriage/internal/domain"
)

// LexiconEntry binds one category to its trigger keywords and the
// follow-up actions suggested when the category wins.
type LexiconEntry struct {
	Category domain.Category
	Keywords []string
	Actions  []string
}

// Lexicon is the immutable keyword/action table driving classification
// and suggestion. It is built once at process start and shared by
// reference; entry order is the match precedence.
type Lexicon struct {
	entries []LexiconEntry
	actions map[domain.Category][]string
}

// NewLexicon validates entries and freezes them into a Lexicon.
// Keywords are lowercased at construction so Classify can match
// against lowercased input directly. The general category is the
// implicit fallback and may not carry keywords of its own.
func NewLexicon(entries []LexiconEntry) (*Lexicon, error) {
	known := map[domain.Category]bool{}
	for _, c := range domain.Categories() {
		known[c] = true
	}
	seen := map[domain.Category]bool{}
	lex := &Lexicon{actions: map[domain.Category][]string{}}
	for _, e := range entries {
		if !known[e.Category] {
			return nil, fmt.Errorf("lexicon: unknown category %q", e.Category)
		}
		if e.Category == domain.CategoryGeneral {
			return nil, fmt.Errorf("lexicon: general is the fallback and cannot have keywords")
		}
		if seen[e.Category] {
			return nil, fmt.Errorf("lexicon: duplicate category %q", e.Category)
		}
		seen[e.Category] = true
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("lexicon: category %q has no keywords", e.Category)
		}
		frozen := LexiconEntry{Category: e.Category}
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("lexicon: category %q has an empty keyword", e.Category)
			}
			frozen.Keywords = append(frozen.Keywords, kw)
		}
		frozen.Actions = append(frozen.Actions, e.Actions...)
		lex.entries = append(lex.entries, frozen)
		lex.actions[e.Category] = frozen.Actions
	}
	return lex, nil
}

// Suggest returns the ordered action list for a category. Categories
// without a table entry (general included) yield an empty list, never
// nil. The result is a copy; callers may not mutate the table.
func (l *Lexicon) Suggest(cat domain.Category) []string {
	actions := l.actions[cat]
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// Default returns the built-in lexicon matching the stock
// configuration template.
func Default() *Lexicon {
	lex, err := NewLexicon([]LexiconEntry{
		{
			Category: domain.CategoryScheduling,
			Keywords: []string{"meeting", "schedule", "call", "appointment", "deadline"},
			Actions:  []string{"Block calendar", "Send invite", "Prepare agenda"},
		},
		{
			Category: domain.CategoryFinance,
			Keywords: []string{"payment", "invoice", "bill", "budget", "expense"},
			Actions:  []string{"Check budget", "Generate invoice"},
		},
		{
			Category: domain.CategoryTechnical,
			Keywords: []string{"bug", "fix", "error", "install", "repair"},
			Actions:  []string{"Diagnose issue", "Assign technician"},
		},
		{
			Category: domain.CategorySafety,
			Keywords: []string{"safety", "hazard", "inspection", "ppe"},
			Actions:  []string{"Conduct inspection", "Notify supervisor"},
		},
	})
	if err != nil {
		panic(err)
	}
	return lex
}
