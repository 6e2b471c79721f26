package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/stream"
)

// pollTickMsg drives the periodic job list refresh.
type pollTickMsg time.Time

// streamEventMsg carries one push event from a channel. Pane is -1 for the
// single log view; closed is set when the channel ended.
type streamEventMsg struct {
	pane   int
	key    string
	event  stream.Event
	closed bool
}

// searchTickMsg fires when the debounce window for a query expires.
type searchTickMsg struct {
	seq int
}

// searchResultMsg carries a completed query. Stale sequence numbers are
// dropped on arrival.
type searchResultMsg struct {
	seq    int
	query  string
	result api.SearchResult
	err    error
}

// actionDoneMsg reports a cancel or resubmit outcome.
type actionDoneMsg struct {
	verb  string
	jobID string
	err   error
}

// statusMsg sets transient footer text.
type statusMsg string

func pollTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func searchTick(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}

// waitForEvent blocks on a channel's event stream and hands the next event
// to Update. Re-issued after every delivery; the chain stops when the
// channel closes.
func waitForEvent(pane int, key string, events <-chan stream.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamEventMsg{pane: pane, key: key, closed: true}
		}
		return streamEventMsg{pane: pane, key: key, event: ev}
	}
}

func waitForPane(pane int, p *compare.Pane) tea.Cmd {
	return waitForEvent(pane, p.Identity().Key(), p.Events())
}
