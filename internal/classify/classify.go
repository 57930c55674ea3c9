package classify

import (
	"fmt"
	"regexp"
	"strings"

	"tasktriage/internal/domain"
)

// PriorityMarkers are the urgency phrases that resolve a task's
// priority. High markers take precedence over medium ones.
type PriorityMarkers struct {
	High   []string
	Medium []string
}

// DefaultMarkers returns the stock urgency markers.
func DefaultMarkers() PriorityMarkers {
	return PriorityMarkers{
		High:   []string{"urgent", "asap", "today", "critical", "emergency"},
		Medium: []string{"soon", "important", "this week"},
	}
}

// Classifier derives (category, priority) from free task text. It is
// a pure function over its input and safe for concurrent use.
type Classifier struct {
	lex    *Lexicon
	high   *regexp.Regexp
	medium *regexp.Regexp
}

// NewClassifier compiles the priority markers and binds the lexicon.
func NewClassifier(lex *Lexicon, markers PriorityMarkers) (*Classifier, error) {
	if lex == nil {
		return nil, fmt.Errorf("classifier: lexicon is required")
	}
	high, err := markerPattern(markers.High)
	if err != nil {
		return nil, fmt.Errorf("classifier: high markers: %w", err)
	}
	medium, err := markerPattern(markers.Medium)
	if err != nil {
		return nil, fmt.Errorf("classifier: medium markers: %w", err)
	}
	return &Classifier{lex: lex, high: high, medium: medium}, nil
}

// markerPattern builds a case-insensitive whole-word alternation.
func markerPattern(markers []string) (*regexp.Regexp, error) {
	if len(markers) == 0 {
		return nil, fmt.Errorf("no markers")
	}
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, fmt.Errorf("empty marker")
		}
		quoted = append(quoted, regexp.QuoteMeta(m))
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Classify resolves the category and priority for text.
//
// Category is first-match-wins over the lexicon in its declared order:
// the first entry with any keyword appearing as a substring of the
// lowercased text wins, and general is the fallback. Priority is
// independent of category: any high marker as a whole word yields
// high, else any medium marker yields medium, else low.
func (c *Classifier) Classify(text string) (domain.Category, domain.Priority) {
	lower := strings.ToLower(text)

	category := domain.CategoryGeneral
	for _, e := range c.lex.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				category = e.Category
				break
			}
		}
		if category != domain.CategoryGeneral {
			break
		}
	}

	priority := domain.PriorityLow
	switch {
	case c.high.MatchString(lower):
		priority = domain.PriorityHigh
	case c.medium.MatchString(lower):
		priority = domain.PriorityMedium
	}
	return category, priority
}

// Suggest returns the ordered follow-up actions for a category.
func (c *Classifier) Suggest(cat domain.Category) []string {
	return c.lex.Suggest(cat)
}
