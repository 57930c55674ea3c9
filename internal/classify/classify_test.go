package classify_test

import (
	"reflect"
	"testing"

	"tasktriage/internal/classify"
	"tasktriage/internal/domain"
)

func newClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.NewClassifier(classify.Default(), classify.DefaultMarkers())
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)
	cases := []struct {
		text     string
		category domain.Category
		priority domain.Priority
	}{
		{"Schedule urgent meeting with team today", domain.CategoryScheduling, domain.PriorityHigh},
		{"Prepare invoice and budget report this week", domain.CategoryFinance, domain.PriorityMedium},
		{"Read documentation and explore ideas", domain.CategoryGeneral, domain.PriorityLow},
		{"Fix the login bug asap", domain.CategoryTechnical, domain.PriorityHigh},
		{"Hazard inspection on site", domain.CategorySafety, domain.PriorityLow},
		{"", domain.CategoryGeneral, domain.PriorityLow},
	}
	for _, tc := range cases {
		cat, pri := c.Classify(tc.text)
		if cat != tc.category || pri != tc.priority {
			t.Fatalf("%q: got (%s, %s), want (%s, %s)", tc.text, cat, pri, tc.category, tc.priority)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := newClassifier(t)
	// "schedule" (scheduling) and "fix" (technical) both appear;
	// scheduling comes first in the lexicon so it wins.
	cat, _ := c.Classify("Schedule someone to fix the heater")
	if cat != domain.CategoryScheduling {
		t.Fatalf("expected scheduling, got %s", cat)
	}
	// "invoice" (finance) and "repair" (technical): finance wins.
	cat, _ = c.Classify("Pay the invoice for the repair")
	if cat != domain.CategoryFinance {
		t.Fatalf("expected finance, got %s", cat)
	}
}

func TestClassifyKeywordSubstring(t *testing.T) {
	c := newClassifier(t)
	// Keywords match as plain substrings, so "calling" contains "call".
	cat, _ := c.Classify("Calling the supplier")
	if cat != domain.CategoryScheduling {
		t.Fatalf("expected scheduling from substring match, got %s", cat)
	}
}

func TestPriorityMarkersAreWholeWords(t *testing.T) {
	c := newClassifier(t)
	// "todays" must not trigger the "today" marker.
	_, pri := c.Classify("Update todays notes")
	if pri != domain.PriorityLow {
		t.Fatalf("expected low for embedded marker, got %s", pri)
	}
	_, pri = c.Classify("Update today's notes")
	if pri != domain.PriorityHigh {
		t.Fatalf("expected high for whole-word marker, got %s", pri)
	}
	// High beats medium when both are present.
	_, pri = c.Classify("Important and urgent request")
	if pri != domain.PriorityHigh {
		t.Fatalf("expected high to win over medium, got %s", pri)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newClassifier(t)
	text := "Schedule urgent meeting with team today"
	cat1, pri1 := c.Classify(text)
	for i := 0; i < 5; i++ {
		cat, pri := c.Classify(text)
		if cat != cat1 || pri != pri1 {
			t.Fatalf("classification drifted on run %d", i)
		}
	}
}

func TestExtract(t *testing.T) {
	got := classify.Extract("Meeting with John today to schedule call")
	want := domain.EntityBundle{
		Dates:   []string{"today"},
		People:  []string{"with John"},
		Actions: []string{"schedule"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestExtractEmptyAndUnmatched(t *testing.T) {
	for _, text := range []string{"", "nothing of interest here"} {
		got := classify.Extract(text)
		if got.Dates == nil || got.People == nil || got.Actions == nil {
			t.Fatalf("%q: expected non-nil slices, got %+v", text, got)
		}
		if len(got.Dates)+len(got.People)+len(got.Actions) != 0 {
			t.Fatalf("%q: expected no matches, got %+v", text, got)
		}
	}
}

func TestExtractKeepsDuplicatesInOrder(t *testing.T) {
	got := classify.Extract("fix the door, then fix the window tomorrow or 3/15/2026")
	if !reflect.DeepEqual(got.Actions, []string{"fix", "fix"}) {
		t.Fatalf("expected duplicate actions preserved, got %v", got.Actions)
	}
	if !reflect.DeepEqual(got.Dates, []string{"tomorrow", "3/15/2026"}) {
		t.Fatalf("expected dates in order of occurrence, got %v", got.Dates)
	}
}

func TestSuggest(t *testing.T) {
	c := newClassifier(t)
	got := c.Suggest(domain.CategoryScheduling)
	want := []string{"Block calendar", "Send invite", "Prepare agenda"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	general := c.Suggest(domain.CategoryGeneral)
	if general == nil || len(general) != 0 {
		t.Fatalf("expected empty non-nil suggestions for general, got %v", general)
	}
}

func TestSuggestReturnsCopy(t *testing.T) {
	c := newClassifier(t)
	first := c.Suggest(domain.CategoryFinance)
	first[0] = "mutated"
	second := c.Suggest(domain.CategoryFinance)
	if second[0] != "Check budget" {
		t.Fatalf("suggestion table was mutated: %v", second)
	}
}

func TestNewLexiconRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name    string
		entries []classify.LexiconEntry
	}{
		{"unknown category", []classify.LexiconEntry{
			{Category: "cooking", Keywords: []string{"pan"}},
		}},
		{"general with keywords", []classify.LexiconEntry{
			{Category: domain.CategoryGeneral, Keywords: []string{"stuff"}},
		}},
		{"duplicate category", []classify.LexiconEntry{
			{Category: domain.CategoryFinance, Keywords: []string{"bill"}},
			{Category: domain.CategoryFinance, Keywords: []string{"invoice"}},
		}},
		{"no keywords", []classify.LexiconEntry{
			{Category: domain.CategoryFinance},
		}},
	}
	for _, tc := range cases {
		if _, err := classify.NewLexicon(tc.entries); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
