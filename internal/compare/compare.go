// Package compare manages side-by-side log comparison.
//
// A comparison shows two to four logs at once, each pane holding its own
// push channel and content buffer. Panes can switch between stdout and
// stderr independently, and scrolling propagates across panes by fraction
// of total content so logs of different lengths stay roughly aligned.
package compare

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkendall/sluice/internal/stream"
)

const (
	// MinPanes is the smallest viable comparison.
	MinPanes = 2
	// MaxPanes bounds how many logs can be compared at once.
	MaxPanes = 4
)

// ErrSelectionLimit is returned when a selection would exceed MaxPanes.
var ErrSelectionLimit = fmt.Errorf("comparison limited to %d logs", MaxPanes)

// ErrTooFewPanes is returned when a comparison is started with fewer than
// MinPanes logs.
var ErrTooFewPanes = fmt.Errorf("comparison needs at least %d logs", MinPanes)

// Selection accumulates log choices before a comparison starts. The limit
// is enforced at selection time, not at start time, so the picker can
// refuse the fifth choice immediately.
type Selection struct {
	ids []stream.Identity
}

// Toggle adds the identity to the selection, or removes it if already
// present. Adding past MaxPanes returns ErrSelectionLimit.
func (s *Selection) Toggle(id stream.Identity) error {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return nil
		}
	}
	if len(s.ids) >= MaxPanes {
		return ErrSelectionLimit
	}
	s.ids = append(s.ids, id)
	return nil
}

// Contains reports whether the identity is selected.
func (s *Selection) Contains(id stream.Identity) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Len returns the number of selected logs.
func (s *Selection) Len() int { return len(s.ids) }

// Ready reports whether enough logs are selected to start.
func (s *Selection) Ready() bool { return len(s.ids) >= MinPanes }

// Identities returns the selected identities in selection order.
func (s *Selection) Identities() []stream.Identity {
	out := make([]stream.Identity, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() { s.ids = nil }

// EventSource is the channel surface a pane consumes. *stream.Channel
// implements it; tests substitute stubs.
type EventSource interface {
	Events() <-chan stream.Event
	Close() error
}

// OpenFunc opens a push channel for one identity.
type OpenFunc func(ctx context.Context, id stream.Identity) (EventSource, error)

// Pane is one log within a comparison.
type Pane struct {
	identity stream.Identity
	buffer   stream.Buffer
	source   EventSource
}

// Identity returns the pane's current log identity.
func (p *Pane) Identity() stream.Identity { return p.identity }

// Events exposes the pane's push channel.
func (p *Pane) Events() <-chan stream.Event { return p.source.Events() }

// Apply folds a push event into the pane's buffer and reports whether the
// event cleared the view.
func (p *Pane) Apply(ev stream.Event) bool {
	p.buffer.Apply(ev)
	return ev.ClearsView()
}

// Content returns the pane's accumulated log text.
func (p *Pane) Content() string { return p.buffer.String() }

// Multiplexer owns the channels of an active comparison.
type Multiplexer struct {
	open  OpenFunc
	panes []*Pane
}

// NewMultiplexer builds a multiplexer that opens channels with open.
func NewMultiplexer(open OpenFunc) *Multiplexer {
	return &Multiplexer{open: open}
}

// Start opens one channel per identity. On any failure it closes whatever
// already opened and returns the error, leaving no panes behind.
func (m *Multiplexer) Start(ctx context.Context, ids []stream.Identity) error {
	if len(ids) < MinPanes {
		return ErrTooFewPanes
	}
	if len(ids) > MaxPanes {
		return ErrSelectionLimit
	}
	panes := make([]*Pane, 0, len(ids))
	for _, id := range ids {
		source, err := m.open(ctx, id)
		if err != nil {
			for _, p := range panes {
				_ = p.source.Close()
			}
			return fmt.Errorf("open %s: %w", id.Key(), err)
		}
		panes = append(panes, &Pane{identity: id, source: source})
	}
	m.panes = panes
	return nil
}

// Panes returns the active panes in display order.
func (m *Multiplexer) Panes() []*Pane { return m.panes }

// Pane returns the pane at index i.
func (m *Multiplexer) Pane(i int) (*Pane, error) {
	if i < 0 || i >= len(m.panes) {
		return nil, errors.New("pane index out of range")
	}
	return m.panes[i], nil
}

// SwitchKind closes pane i's channel and reopens it on the other stream of
// the same log. The pane's buffer resets; the fresh channel's snapshot
// repopulates it. Only the switched pane is disturbed.
func (m *Multiplexer) SwitchKind(ctx context.Context, i int, kind stream.Kind) error {
	pane, err := m.Pane(i)
	if err != nil {
		return err
	}
	if pane.identity.Kind == kind {
		return nil
	}
	next := stream.Identity{LogKey: pane.identity.LogKey, Kind: kind}
	source, err := m.open(ctx, next)
	if err != nil {
		return fmt.Errorf("open %s: %w", next.Key(), err)
	}
	_ = pane.source.Close()
	pane.identity = next
	pane.source = source
	pane.buffer.Clear()
	return nil
}

// RemovePane closes pane i and drops it from the comparison. When removal
// would leave fewer than MinPanes, the whole comparison tears down and
// RemovePane reports done=true.
func (m *Multiplexer) RemovePane(i int) (done bool, err error) {
	pane, err := m.Pane(i)
	if err != nil {
		return false, err
	}
	if len(m.panes)-1 < MinPanes {
		m.CloseAll()
		return true, nil
	}
	_ = pane.source.Close()
	m.panes = append(m.panes[:i], m.panes[i+1:]...)
	return false, nil
}

// CloseAll closes every channel and clears the pane list.
func (m *Multiplexer) CloseAll() {
	for _, p := range m.panes {
		_ = p.source.Close()
	}
	m.panes = nil
}
