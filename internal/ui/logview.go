package ui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/render"
	"github.com/pkendall/sluice/internal/search"
	"github.com/pkendall/sluice/internal/stream"
)

// followThreshold is how close to the bottom, in lines, the viewer must be
// for an append to keep auto-scrolling. Scrolled further up than this, new
// content arrives without yanking the view.
const followThreshold = 32

const singlePane = -1

// searchRequestTimeout bounds one search round trip.
const searchRequestTimeout = 10 * time.Second

// LogView is the single-log viewer: one push channel, its buffer, and the
// derived view with detections, annotations, and search overlaid.
type LogView struct {
	styles Styles
	keys   KeyMap

	client api.Fetcher
	open   compare.OpenFunc
	notes  *annotate.Store
	rules  []analyze.Rule

	identity stream.Identity
	source   compare.EventSource
	buffer   stream.Buffer

	viewport viewport.Model
	width    int
	height   int
	follow   bool

	scan      analyze.Result
	dismissed *analyze.DismissSet
	view      []render.Line

	cursor int // 1-based line the annotate and jump keys act on

	searching   bool
	searchInput textinput.Model
	search      *search.State

	annotating    bool
	annotateInput textinput.Model

	showProblems  bool
	problemCursor int

	status       string
	disconnected bool
}

// NewLogView builds a viewer wired to open channels with open and search
// through client.
func NewLogView(styles Styles, keys KeyMap, client api.Fetcher, open compare.OpenFunc, notes *annotate.Store, rules []analyze.Rule, follow bool) LogView {
	si := textinput.New()
	si.Prompt = "/"
	si.Placeholder = "search"
	si.CharLimit = 256

	ai := textinput.New()
	ai.Prompt = "note: "
	ai.CharLimit = 512

	return LogView{
		styles:        styles,
		keys:          keys,
		client:        client,
		open:          open,
		notes:         notes,
		rules:         rules,
		viewport:      viewport.New(0, 0),
		follow:        follow,
		dismissed:     analyze.NewDismissSet(),
		searchInput:   si,
		annotateInput: ai,
		search:        search.New(),
	}
}

// Open connects the view to one log identity. Any previous channel closes
// first; buffer and search state reset, the dismiss set deliberately does
// not.
func (v *LogView) Open(ctx context.Context, id stream.Identity) (tea.Cmd, error) {
	if v.source != nil {
		_ = v.source.Close()
	}
	source, err := v.open(ctx, id)
	if err != nil {
		return nil, err
	}
	v.identity = id
	v.source = source
	v.buffer.Clear()
	v.search.Clear()
	v.searching = false
	v.annotating = false
	v.disconnected = false
	v.cursor = 1
	v.refresh()
	return waitForEvent(singlePane, id.Key(), source.Events()), nil
}

// Close tears down the channel, if any.
func (v *LogView) Close() {
	if v.source != nil {
		_ = v.source.Close()
		v.source = nil
	}
}

// Identity returns the log currently shown.
func (v *LogView) Identity() stream.Identity { return v.identity }

// SetSize resizes the viewer.
func (v *LogView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height - 2 // search bar and status line
	v.refresh()
}

func (v LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	switch msg := msg.(type) {
	case streamEventMsg:
		if msg.pane != singlePane || msg.key != v.identity.Key() {
			return v, nil
		}
		if msg.closed {
			v.disconnected = true
			v.status = "stream closed"
			return v, nil
		}
		v.applyEvent(msg.event)
		return v, waitForEvent(singlePane, msg.key, v.source.Events())

	case searchTickMsg:
		if msg.seq != v.search.Seq {
			return v, nil
		}
		return v, v.runSearch(v.searchInput.Value())

	case searchResultMsg:
		if msg.seq != v.search.Seq {
			return v, nil
		}
		if msg.err != nil {
			v.search.SetResult(msg.query, api.SearchResult{Error: "Error"})
		} else {
			v.search.SetResult(msg.query, msg.result)
		}
		v.refresh()
		v.scrollToCurrentMatch()
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v LogView) handleKey(msg tea.KeyMsg) (LogView, tea.Cmd) {
	if v.searching {
		return v.handleSearchKey(msg)
	}
	if v.annotating {
		return v.handleAnnotateKey(msg)
	}
	if v.showProblems {
		if handled, next, cmd := v.handleProblemsKey(msg); handled {
			return next, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.SetValue(v.search.Query)
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Annotate):
		v.annotating = true
		if note, ok := v.notes.Get(v.identity)[v.cursor]; ok {
			v.annotateInput.SetValue(note.Text)
		} else {
			v.annotateInput.SetValue("")
		}
		v.annotateInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.NextMatch):
		v.search.Next()
		v.refresh()
		v.scrollToCurrentMatch()
		return v, nil

	case key.Matches(msg, v.keys.PrevMatch):
		v.search.Prev()
		v.refresh()
		v.scrollToCurrentMatch()
		return v, nil

	case key.Matches(msg, v.keys.NextNote):
		if line, ok := v.notes.Next(v.identity, v.cursor); ok {
			v.jumpTo(line)
		}
		return v, nil

	case key.Matches(msg, v.keys.PrevNote):
		if line, ok := v.notes.Prev(v.identity, v.cursor); ok {
			v.jumpTo(line)
		}
		return v, nil

	case key.Matches(msg, v.keys.Problems):
		v.showProblems = !v.showProblems
		v.problemCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Follow):
		v.follow = !v.follow
		if v.follow {
			v.viewport.GotoBottom()
			v.cursor = len(v.view)
		}
		return v, nil

	case key.Matches(msg, v.keys.Copy):
		text, ok := v.lineToCopy()
		if !ok {
			return v, nil
		}
		if err := clipboard.WriteAll(text); err != nil {
			v.status = "copy failed"
		} else {
			v.status = fmt.Sprintf("line %d copied", v.cursor)
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		v.follow = false
		v.jumpTo(v.cursor - 1)
		return v, nil

	case key.Matches(msg, v.keys.Down):
		v.jumpTo(v.cursor + 1)
		return v, nil

	case key.Matches(msg, v.keys.Top):
		v.follow = false
		v.jumpTo(1)
		return v, nil

	case key.Matches(msg, v.keys.Bottom):
		v.jumpTo(len(v.view))
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v LogView) handleSearchKey(msg tea.KeyMsg) (LogView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.searching = false
		v.searchInput.Blur()
		v.search.Clear()
		v.refresh()
		return v, nil
	case "enter":
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	before := v.searchInput.Value()
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	value := v.searchInput.Value()
	if value == before {
		return v, cmd
	}

	v.search.Seq++
	if strings.TrimSpace(value) == "" {
		// An emptied query clears without a round trip.
		v.search.Clear()
		v.refresh()
		return v, cmd
	}
	return v, tea.Batch(cmd, searchTick(v.search.Seq, search.DebounceInterval))
}

func (v LogView) handleAnnotateKey(msg tea.KeyMsg) (LogView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.annotating = false
		v.annotateInput.Blur()
		return v, nil
	case "enter":
		v.annotating = false
		v.annotateInput.Blur()
		text := v.annotateInput.Value()
		id := v.identity
		var err error
		if _, exists := v.notes.Get(id)[v.cursor]; exists {
			err = v.notes.Edit(id, v.cursor, text)
		} else {
			err = v.notes.Add(id, v.cursor, text)
		}
		if err != nil {
			v.status = fmt.Sprintf("annotation: %v", err)
		}
		v.refresh()
		return v, nil
	}
	var cmd tea.Cmd
	v.annotateInput, cmd = v.annotateInput.Update(msg)
	return v, cmd
}

func (v LogView) handleProblemsKey(msg tea.KeyMsg) (bool, LogView, tea.Cmd) {
	groups := v.problemGroups()
	switch {
	case key.Matches(msg, v.keys.Down):
		if v.problemCursor < len(groups)-1 {
			v.problemCursor++
		}
		return true, v, nil
	case key.Matches(msg, v.keys.Up):
		if v.problemCursor > 0 {
			v.problemCursor--
		}
		return true, v, nil
	case key.Matches(msg, v.keys.Open):
		if v.problemCursor < len(groups) {
			v.showProblems = false
			v.follow = false
			v.jumpTo(groups[v.problemCursor].FirstLine)
		}
		return true, v, nil
	case key.Matches(msg, v.keys.Dismiss):
		if v.problemCursor < len(groups) {
			v.dismissed.DismissType(groups[v.problemCursor].Type, v.scan.Detections)
			if v.problemCursor >= len(v.problemGroups()) && v.problemCursor > 0 {
				v.problemCursor--
			}
			v.refresh()
		}
		return true, v, nil
	case key.Matches(msg, v.keys.Back):
		v.showProblems = false
		return true, v, nil
	}
	return false, v, nil
}

// applyEvent folds one push event into the buffer and refreshes the view.
// Reset and snapshot jump to the top; appends keep following only when the
// viewer was already near the bottom.
func (v *LogView) applyEvent(ev stream.Event) {
	wasNear := v.nearBottom()
	v.buffer.Apply(ev)
	v.refresh()
	if ev.ClearsView() {
		v.viewport.GotoTop()
		v.cursor = 1
		return
	}
	if v.follow && wasNear {
		v.viewport.GotoBottom()
		v.cursor = len(v.view)
	}
}

func (v *LogView) nearBottom() bool {
	remaining := v.viewport.TotalLineCount() - (v.viewport.YOffset + v.viewport.Height)
	return remaining <= followThreshold
}

// refresh re-derives the view and re-renders viewport content.
func (v *LogView) refresh() {
	lines := v.buffer.Lines()
	v.scan = analyze.Scan(lines, v.rules)

	matchLines := make([]int, len(v.search.Matches))
	for i, m := range v.search.Matches {
		matchLines[i] = m.LineNumber
	}

	v.view = render.Derive(render.Input{
		Lines:        lines,
		Annotations:  v.notes.Get(v.identity),
		Detections:   v.scan.Detections,
		InBlock:      v.scan.InBlock,
		Dismissed:    v.dismissed,
		MatchLines:   matchLines,
		CurrentMatch: v.search.Current,
	})
	if v.cursor < 1 {
		v.cursor = 1
	}
	if v.cursor > len(v.view) && len(v.view) > 0 {
		v.cursor = len(v.view)
	}
	v.viewport.SetContent(v.renderContent())
}

func (v *LogView) jumpTo(line int) {
	if line < 1 {
		line = 1
	}
	if line > len(v.view) {
		line = len(v.view)
	}
	v.cursor = line
	top := v.viewport.YOffset + 1
	bottom := v.viewport.YOffset + v.viewport.Height
	if line < top || line > bottom {
		v.viewport.SetYOffset(line - v.viewport.Height/2)
	}
	v.viewport.SetContent(v.renderContent())
}

// lineToCopy returns the cursor line's raw text.
func (v LogView) lineToCopy() (string, bool) {
	if v.cursor < 1 || v.cursor > len(v.view) {
		return "", false
	}
	return v.view[v.cursor-1].Text, true
}

func (v *LogView) scrollToCurrentMatch() {
	if m, ok := v.search.CurrentMatch(); ok {
		v.follow = false
		v.jumpTo(m.LineNumber)
	}
}

func (v LogView) runSearch(query string) tea.Cmd {
	seq := v.search.Seq
	client := v.client
	req := api.SearchQuery{
		LogKey:  v.identity.LogKey,
		Kind:    string(v.identity.Kind),
		Q:       query,
		Context: 0,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchRequestTimeout)
		defer cancel()
		result, err := client.SearchLog(ctx, req)
		return searchResultMsg{seq: seq, query: query, result: result, err: err}
	}
}

func (v LogView) problemGroups() []analyze.Group {
	return analyze.Summarize(v.scan.Detections, v.dismissed)
}

func (v LogView) renderContent() string {
	highlight := search.HighlightRegex(v.search.Query)
	numWidth := len(fmt.Sprintf("%d", max(len(v.view), 1)))

	var b strings.Builder
	for _, line := range v.view {
		b.WriteString(v.renderLine(line, highlight, numWidth))
		b.WriteByte('\n')
	}
	return b.String()
}

func (v LogView) renderLine(line render.Line, highlight *regexp.Regexp, numWidth int) string {
	num := v.styles.LineNumber.Render(fmt.Sprintf("%*d", numWidth, line.Number))
	if line.Number == v.cursor && !v.follow {
		num = v.styles.Selected.Render(fmt.Sprintf("%*d", numWidth, line.Number))
	}

	mark := " "
	if line.Annotated {
		mark = v.styles.AnnotationMark.Render("●")
	}
	errMark := " "
	if line.Marker != nil {
		errMark = v.styles.DangerText.Render(line.Marker.Icon)
	}

	text := v.styles.ClassStyle(line.Class).Render(line.Text)
	if line.Match != render.MatchNone && highlight != nil {
		matchStyle := v.styles.MatchOther
		if line.Match == render.MatchCurrent {
			matchStyle = v.styles.MatchCurrent
		}
		text = highlight.ReplaceAllStringFunc(line.Text, func(s string) string {
			return matchStyle.Render(s)
		})
	}
	return fmt.Sprintf("%s %s%s %s", num, mark, errMark, text)
}

func (v LogView) View() string {
	var sections []string
	sections = append(sections, v.viewport.View())

	switch {
	case v.searching:
		counter := v.styles.MutedText.Render(v.search.CounterText())
		sections = append(sections, v.searchInput.View()+"  "+counter)
	case v.annotating:
		sections = append(sections, v.annotateInput.View())
	case v.search.Active():
		sections = append(sections, v.styles.MutedText.Render(
			fmt.Sprintf("/%s  %s", v.search.Query, v.search.CounterText())))
	default:
		sections = append(sections, v.statusLine())
	}

	if note, ok := v.notes.Get(v.identity)[v.cursor]; ok && !v.annotating {
		wrapped := wordwrap.String(note.Text, max(v.width-4, 20))
		sections = append(sections, v.styles.InfoText.Render(wrapped))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if v.showProblems {
		return lipgloss.JoinVertical(lipgloss.Left, body, v.problemsView())
	}
	return body
}

func (v LogView) statusLine() string {
	follow := "follow off"
	if v.follow {
		follow = "follow on"
	}
	parts := []string{v.identity.String(), follow}
	if groups := v.problemGroups(); len(groups) > 0 {
		total := 0
		for _, g := range groups {
			total += g.Total
		}
		parts = append(parts, v.styles.DangerText.Render(fmt.Sprintf("%d problems", total)))
	}
	if v.disconnected {
		parts = append(parts, v.styles.WarningText.Render("disconnected"))
	}
	if v.status != "" {
		parts = append(parts, v.status)
	}
	return v.styles.Footer.Render(strings.Join(parts, "  "))
}

func (v LogView) problemsView() string {
	groups := v.problemGroups()
	if len(groups) == 0 {
		return v.styles.Pane.Render(v.styles.MutedText.Render("no problems detected"))
	}
	var b strings.Builder
	for i, g := range groups {
		line := fmt.Sprintf("%s %s  line %d  ×%d", g.Icon, g.Label, g.FirstLine, g.Total)
		if i == v.problemCursor {
			line = v.styles.Selected.Render(line)
		}
		b.WriteString(line)
		if i < len(groups)-1 {
			b.WriteByte('\n')
		}
	}
	return v.styles.Pane.Render(b.String())
}

