package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/stream"
)

// CompareView shows two to four logs side by side. Each pane has its own
// viewport over its pane buffer; panes only share the optional synchronized
// scrolling.
type CompareView struct {
	styles Styles
	keys   KeyMap

	mux       *compare.Multiplexer
	sync      compare.ScrollSync
	syncOn    bool
	viewports []viewport.Model
	focused   int

	width  int
	height int
}

// NewCompareView builds a comparison wired to open channels with open.
func NewCompareView(styles Styles, keys KeyMap, open compare.OpenFunc, syncOn bool) CompareView {
	return CompareView{
		styles: styles,
		keys:   keys,
		mux:    compare.NewMultiplexer(open),
		syncOn: syncOn,
	}
}

// Start opens the comparison and returns the listen command for each pane.
func (c *CompareView) Start(ctx context.Context, ids []stream.Identity) (tea.Cmd, error) {
	if err := c.mux.Start(ctx, ids); err != nil {
		return nil, err
	}
	panes := c.mux.Panes()
	c.viewports = make([]viewport.Model, len(panes))
	for i := range c.viewports {
		c.viewports[i] = viewport.New(0, 0)
	}
	c.focused = 0
	c.layout()

	cmds := make([]tea.Cmd, len(panes))
	for i, p := range panes {
		cmds[i] = waitForPane(i, p)
	}
	return tea.Batch(cmds...), nil
}

// Active reports whether the comparison still has panes.
func (c *CompareView) Active() bool { return len(c.mux.Panes()) > 0 }

// Close tears the comparison down.
func (c *CompareView) Close() {
	c.mux.CloseAll()
	c.viewports = nil
}

// SetSize resizes the comparison.
func (c *CompareView) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.layout()
}

func (c *CompareView) layout() {
	n := len(c.viewports)
	if n == 0 || c.width == 0 {
		return
	}
	paneWidth := c.width/n - 2 // border
	paneHeight := c.height - 3 // header and border
	for i := range c.viewports {
		c.viewports[i].Width = paneWidth
		c.viewports[i].Height = paneHeight
	}
}

func (c CompareView) Update(msg tea.Msg) (CompareView, tea.Cmd) {
	switch msg := msg.(type) {
	case streamEventMsg:
		return c.handleStreamEvent(msg)
	case tea.KeyMsg:
		return c.handleKey(msg)
	}
	return c, nil
}

func (c CompareView) handleStreamEvent(msg streamEventMsg) (CompareView, tea.Cmd) {
	// Removing a pane shifts the indexes of the survivors, so a delivery
	// issued before the removal can carry a stale index. Route by identity
	// key: the pane owning the channel keeps streaming at whatever index it
	// now occupies.
	idx := c.paneIndex(msg.key)
	if idx < 0 {
		// The pane was removed or switched kinds; drop the stale delivery.
		return c, nil
	}
	pane, _ := c.mux.Pane(idx)
	if msg.closed {
		return c, nil
	}

	vp := &c.viewports[idx]
	atBottom := vp.AtBottom()
	cleared := pane.Apply(msg.event)
	vp.SetContent(pane.Content())
	if cleared {
		vp.GotoTop()
	} else if atBottom {
		vp.GotoBottom()
	}
	return c, waitForPane(idx, pane)
}

// paneIndex resolves a stream identity key to the pane's current index, or
// -1 when no open pane owns that channel.
func (c CompareView) paneIndex(key string) int {
	for i, p := range c.mux.Panes() {
		if p.Identity().Key() == key {
			return i
		}
	}
	return -1
}

func (c CompareView) handleKey(msg tea.KeyMsg) (CompareView, tea.Cmd) {
	switch {
	case key.Matches(msg, c.keys.ToggleKind):
		pane, err := c.mux.Pane(c.focused)
		if err != nil {
			return c, nil
		}
		kind := stream.KindStdout
		if pane.Identity().Kind == stream.KindStdout {
			kind = stream.KindStderr
		}
		if err := c.mux.SwitchKind(context.Background(), c.focused, kind); err != nil {
			return c, nil
		}
		c.viewports[c.focused].SetContent("")
		c.viewports[c.focused].GotoTop()
		pane, _ = c.mux.Pane(c.focused)
		return c, waitForPane(c.focused, pane)

	case key.Matches(msg, c.keys.Dismiss):
		done, err := c.mux.RemovePane(c.focused)
		if err != nil {
			return c, nil
		}
		if done {
			c.viewports = nil
			return c, nil
		}
		c.viewports = append(c.viewports[:c.focused], c.viewports[c.focused+1:]...)
		if c.focused >= len(c.viewports) {
			c.focused = len(c.viewports) - 1
		}
		c.layout()
		return c, nil

	case key.Matches(msg, c.keys.SyncScroll):
		c.syncOn = !c.syncOn
		return c, nil

	case msg.String() == "tab" || msg.String() == "l" || msg.String() == "right":
		c.focused = (c.focused + 1) % len(c.viewports)
		return c, nil

	case msg.String() == "h" || msg.String() == "left":
		c.focused = (c.focused - 1 + len(c.viewports)) % len(c.viewports)
		return c, nil
	}

	before := c.viewports[c.focused].YOffset
	var cmd tea.Cmd
	c.viewports[c.focused], cmd = c.viewports[c.focused].Update(msg)
	if c.syncOn && c.viewports[c.focused].YOffset != before {
		c.broadcastScroll()
	}
	return c, cmd
}

// broadcastScroll applies the focused pane's scroll fraction to the others.
func (c *CompareView) broadcastScroll() {
	src := c.viewports[c.focused]
	span := src.TotalLineCount() - src.Height
	if span <= 0 {
		return
	}
	fraction := float64(src.YOffset) / float64(span)
	c.sync.Broadcast(c.focused, len(c.viewports), fraction, func(pane int, fraction float64) {
		vp := &c.viewports[pane]
		target := vp.TotalLineCount() - vp.Height
		if target <= 0 {
			return
		}
		vp.SetYOffset(int(fraction * float64(target)))
	})
}

func (c CompareView) View() string {
	panes := c.mux.Panes()
	if len(panes) == 0 {
		return c.styles.MutedText.Render("comparison closed")
	}
	views := make([]string, len(panes))
	for i, p := range panes {
		border := c.styles.Pane
		if i == c.focused {
			border = c.styles.PaneFocus
		}
		width := 20
		if len(c.viewports) > i {
			width = max(c.viewports[i].Width, 8)
		}
		header := c.styles.Header.Render(truncate.StringWithTail(p.Identity().String(), uint(width), "…"))
		views[i] = border.Render(lipgloss.JoinVertical(lipgloss.Left, header, c.viewports[i].View()))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, views...)
	syncState := "sync off"
	if c.syncOn {
		syncState = "sync on"
	}
	footer := c.styles.Footer.Render(fmt.Sprintf("%d panes  %s", len(panes), syncState))
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}
