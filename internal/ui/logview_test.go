package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/stream"
)

type stubSource struct {
	events chan stream.Event
}

func (s *stubSource) Events() <-chan stream.Event { return s.events }
func (s *stubSource) Close() error                { return nil }

type stubFetcher struct {
	api.Fetcher
	result api.SearchResult
}

func (f *stubFetcher) SearchLog(context.Context, api.SearchQuery) (api.SearchResult, error) {
	return f.result, nil
}

func (f *stubFetcher) BaseURL() string { return "http://127.0.0.1:0" }

func newTestLogView(t *testing.T) (LogView, *stubSource) {
	t.Helper()
	src := &stubSource{events: make(chan stream.Event, 8)}
	open := func(context.Context, stream.Identity) (compare.EventSource, error) {
		return src, nil
	}
	notes, err := annotate.Open(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	styles := draculaTheme().Styles()
	v := NewLogView(styles, DefaultKeyMap(), &stubFetcher{}, open, notes, analyze.DefaultRules(), true)
	v.SetSize(80, 24)
	if _, err := v.Open(context.Background(), stream.Identity{LogKey: "train::1", Kind: stream.KindStdout}); err != nil {
		t.Fatal(err)
	}
	return v, src
}

func TestLogViewAppendFollowsWhenNearBottom(t *testing.T) {
	v, _ := newTestLogView(t)
	v.applyEvent(stream.SnapshotEvent("one\ntwo\n"))
	if !v.nearBottom() {
		t.Fatal("short buffer should count as near bottom")
	}
	v.applyEvent(stream.AppendEvent("three\n"))
	if v.buffer.String() != "one\ntwo\nthree\n" {
		t.Errorf("buffer = %q", v.buffer.String())
	}
	if !v.viewport.AtBottom() {
		t.Error("follow did not keep the view at the bottom")
	}
}

func TestLogViewSnapshotJumpsToTop(t *testing.T) {
	v, _ := newTestLogView(t)
	var big string
	for i := 0; i < 200; i++ {
		big += "line\n"
	}
	v.applyEvent(stream.SnapshotEvent(big))
	v.viewport.GotoBottom()

	v.applyEvent(stream.ResetSnapshotEvent("fresh start\n"))
	if v.viewport.YOffset != 0 {
		t.Errorf("YOffset = %d after reset, want 0", v.viewport.YOffset)
	}
	if v.cursor != 1 {
		t.Errorf("cursor = %d after reset, want 1", v.cursor)
	}
}

func TestLogViewNoFollowWhenScrolledUp(t *testing.T) {
	v, _ := newTestLogView(t)
	var big string
	for i := 0; i < 300; i++ {
		big += "line\n"
	}
	v.applyEvent(stream.SnapshotEvent(big))
	v.viewport.GotoTop()

	v.applyEvent(stream.AppendEvent("new tail\n"))
	if v.viewport.YOffset != 0 {
		t.Error("append yanked a scrolled-up view to the bottom")
	}
}

func TestLogViewStaleSearchResultDropped(t *testing.T) {
	v, _ := newTestLogView(t)
	v.applyEvent(stream.SnapshotEvent("foo\nbar\n"))
	v.search.Seq = 5

	updated, _ := v.Update(searchResultMsg{
		seq:    3, // stale
		query:  "foo",
		result: api.SearchResult{Matches: []api.SearchMatch{{LineNumber: 1}}, TotalMatches: 1},
	})
	if updated.search.Active() {
		t.Error("stale result installed search state")
	}

	updated, _ = v.Update(searchResultMsg{
		seq:    5,
		query:  "foo",
		result: api.SearchResult{Matches: []api.SearchMatch{{LineNumber: 1}}, TotalMatches: 1},
	})
	if !updated.search.Active() || updated.search.Total != 1 {
		t.Error("current result not installed")
	}
}

func TestLogViewRendersHighlightedMatches(t *testing.T) {
	v, _ := newTestLogView(t)
	v.applyEvent(stream.SnapshotEvent("alpha\nbeta\ngamma\n"))
	v.search.SetResult("beta", api.SearchResult{
		Matches:      []api.SearchMatch{{LineNumber: 2}},
		TotalMatches: 1,
	})
	v.refresh()
	content := v.renderContent()
	if !strings.Contains(content, "beta") {
		t.Error("matched line missing from rendered content")
	}
	if !strings.Contains(content, "gamma") {
		t.Error("unmatched line missing from rendered content")
	}
}

func TestLogViewCopiesCursorLine(t *testing.T) {
	v, _ := newTestLogView(t)
	v.applyEvent(stream.SnapshotEvent("first\nsecond\nthird\n"))
	v.jumpTo(2)
	if got, ok := v.lineToCopy(); !ok || got != "second" {
		t.Errorf("lineToCopy = %q, %v, want %q", got, ok, "second")
	}

	empty := LogView{}
	if _, ok := empty.lineToCopy(); ok {
		t.Error("empty view offered a line to copy")
	}
}

func TestLogViewStreamClosedMarksDisconnected(t *testing.T) {
	v, _ := newTestLogView(t)
	updated, _ := v.Update(streamEventMsg{pane: singlePane, key: "train::1#stdout", closed: true})
	if !updated.disconnected {
		t.Error("closed channel did not mark the view disconnected")
	}
}

func TestLogViewIgnoresEventsForOtherLogs(t *testing.T) {
	v, _ := newTestLogView(t)
	v.applyEvent(stream.SnapshotEvent("mine\n"))
	updated, _ := v.Update(streamEventMsg{
		pane:  singlePane,
		key:   "other::9#stdout",
		event: stream.SnapshotEvent("not mine\n"),
	})
	if updated.buffer.String() != "mine\n" {
		t.Errorf("buffer = %q, foreign event applied", updated.buffer.String())
	}
}
