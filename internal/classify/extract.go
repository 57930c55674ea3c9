package classify

import (
	"regexp"

	"tasktriage/internal/domain"
)

// Extraction patterns are fixed; unlike the lexicon they are not
// configurable. People are captured verbatim including the word
// "with": raw capture, not name extraction.
var (
	dateRE   = regexp.MustCompile(`(?i)\b(?:today|tomorrow|\d{1,2}/\d{1,2}/\d{4})\b`)
	personRE = regexp.MustCompile(`(?i)with\s+\w+`)
	actionRE = regexp.MustCompile(`(?i)\b(?:schedule|fix|pay|inspect|install)\b`)
)

// Extract scans a task description for date mentions, "with <name>"
// person references, and action verbs. It is total over its input:
// empty or unmatched text yields empty (non-nil) slices, matches are
// returned verbatim in order of occurrence without deduplication.
func Extract(description string) domain.EntityBundle {
	return domain.EntityBundle{
		Dates:   allMatches(dateRE, description),
		People:  allMatches(personRE, description),
		Actions: allMatches(actionRE, description),
	}
}

func allMatches(re *regexp.Regexp, text string) []string {
	found := re.FindAllString(text, -1)
	if found == nil {
		return []string{}
	}
	return found
}
