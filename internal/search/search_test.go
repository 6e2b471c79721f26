package search

import (
	"testing"

	"github.com/pkendall/sluice/internal/api"
)

func resultWith(lines ...int) api.SearchResult {
	matches := make([]api.SearchMatch, len(lines))
	for i, n := range lines {
		matches[i] = api.SearchMatch{LineNumber: n, Text: "line"}
	}
	return api.SearchResult{Matches: matches, TotalMatches: len(matches)}
}

func TestNavigationWrapsBothWays(t *testing.T) {
	s := New()
	s.SetResult("foo", resultWith(3, 17))

	if s.Current != 0 {
		t.Fatalf("Current after SetResult = %d, want 0", s.Current)
	}
	s.Next()
	if s.Current != 1 {
		t.Errorf("after Next, Current = %d, want 1", s.Current)
	}
	s.Next()
	if s.Current != 0 {
		t.Errorf("Next past end did not wrap, Current = %d", s.Current)
	}
	s.Prev()
	if s.Current != 1 {
		t.Errorf("Prev before start did not wrap, Current = %d", s.Current)
	}
}

func TestNavigationNoMatches(t *testing.T) {
	s := New()
	s.SetResult("foo", api.SearchResult{})
	s.Next()
	s.Prev()
	if s.Current != -1 {
		t.Errorf("Current = %d, want -1", s.Current)
	}
	if _, ok := s.CurrentMatch(); ok {
		t.Error("CurrentMatch reported ok with no matches")
	}
}

func TestCounterText(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*State)
		want  string
	}{
		{"inactive", func(s *State) {}, ""},
		{"no matches", func(s *State) {
			s.SetResult("zzz", api.SearchResult{})
		}, "No matches"},
		{"position and total", func(s *State) {
			s.SetResult("foo", resultWith(1, 5, 9))
			s.Next()
		}, "2/3"},
		{"truncated", func(s *State) {
			r := resultWith(1, 2)
			r.TotalMatches = 500
			r.Truncated = true
			s.SetResult("e", r)
		}, "1/500+ matches"},
		{"server error", func(s *State) {
			s.SetResult("((", api.SearchResult{Error: "invalid pattern"})
		}, "invalid pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.setup(s)
			if got := s.CounterText(); got != tt.want {
				t.Errorf("CounterText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClearKeepsSequence(t *testing.T) {
	s := New()
	s.Seq = 4
	s.SetResult("foo", resultWith(1))
	s.Clear()
	if s.Active() {
		t.Error("still active after Clear")
	}
	if s.Seq != 4 {
		t.Errorf("Seq = %d, want 4", s.Seq)
	}
	if s.Current != -1 {
		t.Errorf("Current = %d, want -1", s.Current)
	}
}

func TestHighlightRegex(t *testing.T) {
	re := HighlightRegex("loss (exp|nan)")
	if re == nil || !re.MatchString("LOSS NAN") {
		t.Error("valid pattern should match case-insensitively")
	}

	re = HighlightRegex("a[b")
	if re == nil {
		t.Fatal("invalid pattern should degrade to literal")
	}
	if !re.MatchString("saw a[b in log") {
		t.Error("literal fallback did not match the raw query text")
	}

	if HighlightRegex("") != nil {
		t.Error("empty query should produce nil")
	}
}
