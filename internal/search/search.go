// Package search holds client-side search state for a log view.
//
// Queries run on the daemon, which sees the whole log file; this package
// keeps the returned matches, tracks the current position, and produces the
// counter text and highlight pattern the view needs. Navigation wraps at
// both ends.
package search

import (
	"fmt"
	"regexp"
	"time"

	"github.com/pkendall/sluice/internal/api"
)

// DebounceInterval is how long the UI waits after the last keystroke
// before issuing a query.
const DebounceInterval = 300 * time.Millisecond

// State tracks an active search over one log view.
type State struct {
	Query     string
	Matches   []api.SearchMatch
	Total     int
	Truncated bool
	Current   int // index into Matches, -1 when empty
	Err       string

	// Seq increments per issued query so stale responses can be dropped.
	Seq int
}

// New returns an empty search state.
func New() *State {
	return &State{Current: -1}
}

// Active reports whether a query is in effect.
func (s *State) Active() bool {
	return s.Query != ""
}

// SetResult installs a query response. The current position resets to the
// first match. Responses carrying a stale sequence number should be dropped
// by the caller before reaching here.
func (s *State) SetResult(query string, result api.SearchResult) {
	s.Query = query
	s.Matches = result.Matches
	s.Total = result.TotalMatches
	s.Truncated = result.Truncated
	s.Err = result.Error
	if len(s.Matches) > 0 {
		s.Current = 0
	} else {
		s.Current = -1
	}
}

// Clear drops all search state.
func (s *State) Clear() {
	*s = State{Current: -1, Seq: s.Seq}
}

// Next advances to the next match, wrapping to the first after the last.
func (s *State) Next() {
	if len(s.Matches) == 0 {
		return
	}
	s.Current = (s.Current + 1) % len(s.Matches)
}

// Prev moves to the previous match, wrapping to the last before the first.
func (s *State) Prev() {
	if len(s.Matches) == 0 {
		return
	}
	s.Current = (s.Current - 1 + len(s.Matches)) % len(s.Matches)
}

// CurrentMatch returns the match at the current position.
func (s *State) CurrentMatch() (api.SearchMatch, bool) {
	if s.Current < 0 || s.Current >= len(s.Matches) {
		return api.SearchMatch{}, false
	}
	return s.Matches[s.Current], true
}

// CounterText renders the position indicator shown next to the search bar.
func (s *State) CounterText() string {
	switch {
	case s.Err != "":
		return s.Err
	case !s.Active():
		return ""
	case len(s.Matches) == 0:
		return "No matches"
	case s.Truncated:
		return fmt.Sprintf("%d/%d+ matches", s.Current+1, s.Total)
	default:
		return fmt.Sprintf("%d/%d", s.Current+1, s.Total)
	}
}

// HighlightRegex compiles a case-insensitive pattern for in-line match
// highlighting. An invalid pattern degrades to a literal match on the query
// text, so typing an unbalanced bracket still highlights something sensible.
func HighlightRegex(query string) *regexp.Regexp {
	if query == "" {
		return nil
	}
	if re, err := regexp.Compile("(?i)" + query); err == nil {
		return re
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
}
