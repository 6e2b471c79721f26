package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pkendall/sluice/internal/analyze"
	"github.com/pkendall/sluice/internal/annotate"
	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/config"
	"github.com/pkendall/sluice/internal/prefs"
	"github.com/pkendall/sluice/internal/state"
	"github.com/pkendall/sluice/internal/stream"
)

type mode int

const (
	modeJobs mode = iota
	modeLog
	modeCompare
)

// Options configure the sluice TUI.
type Options struct {
	Context   context.Context
	Client    api.Fetcher
	Store     *state.Store
	Notes     *annotate.Store
	Rules     []analyze.Rule
	Config    *config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	PollTick  time.Duration
}

// Model is the top-level Bubble Tea model.
type Model struct {
	opts   Options
	theme  Theme
	styles Styles
	keys   KeyMap

	mode    mode
	jobs    JobList
	log     LogView
	cmp     CompareView
	actions actionRunner

	width  int
	height int
}

// New builds the top-level model.
func New(opts Options) Model {
	theme := GetTheme(opts.Prefs.Theme)
	styles := theme.Styles()
	keys := DefaultKeyMap()
	open := channelOpener(opts.Context, opts.Client.BaseURL())

	return Model{
		opts:    opts,
		theme:   theme,
		styles:  styles,
		keys:    keys,
		jobs:    NewJobList(styles, keys, opts.Store),
		log:     NewLogView(styles, keys, opts.Client, open, opts.Notes, opts.Rules, opts.Prefs.FollowByDefault),
		cmp:     NewCompareView(styles, keys, open, opts.Prefs.SyncScroll),
		actions: actionRunner{client: opts.Client},
	}
}

// channelOpener adapts stream.Open to the compare.OpenFunc shape shared by
// the single view and the comparison.
func channelOpener(ctx context.Context, baseURL string) compare.OpenFunc {
	return func(_ context.Context, id stream.Identity) (compare.EventSource, error) {
		return stream.Open(ctx, baseURL, id)
	}
}

func (m Model) Init() tea.Cmd {
	return pollTick(m.opts.PollTick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobs.SetSize(msg.Width, msg.Height)
		m.log.SetSize(msg.Width, msg.Height)
		m.cmp.SetSize(msg.Width, msg.Height)
		return m, nil

	case pollTickMsg:
		// The poller goroutine refreshed the store; this tick only
		// redraws and re-arms.
		return m, pollTick(m.opts.PollTick)

	case actionDoneMsg:
		if msg.err != nil {
			m.jobs.SetStatus(fmt.Sprintf("%s failed: %v", msg.verb, msg.err))
		} else if msg.verb == "resubmit" {
			m.jobs.SetStatus(fmt.Sprintf("resubmitted as job %s", msg.jobID))
		} else {
			m.jobs.SetStatus(fmt.Sprintf("job %s cancelled", msg.jobID))
		}
		return m, nil

	case statusMsg:
		m.jobs.SetStatus(string(msg))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.route(msg)
}

// route forwards non-key messages to the component that owns them.
func (m Model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeLog:
		m.log, cmd = m.log.Update(msg)
	case modeCompare:
		m.cmp, cmd = m.cmp.Update(msg)
	default:
		// Stream events can still arrive for a view the user just left;
		// deliver them so channels drain and re-arm correctly.
		if ev, ok := msg.(streamEventMsg); ok {
			if ev.pane == singlePane {
				m.log, cmd = m.log.Update(msg)
			} else {
				m.cmp, cmd = m.cmp.Update(msg)
			}
			return m, cmd
		}
		m.jobs, cmd = m.jobs.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text inputs swallow everything, including "q".
	if m.mode == modeLog && (m.log.searching || m.log.annotating) {
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.log.Close()
		m.cmp.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Theme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		m.jobs.styles = m.styles
		m.log.styles = m.styles
		m.cmp.styles = m.styles
		m.savePrefs()
		return m, nil
	}

	switch m.mode {
	case modeJobs:
		return m.handleJobsKey(msg)
	case modeLog:
		if key.Matches(msg, m.keys.Back) && !m.log.showProblems {
			m.log.Close()
			m.mode = modeJobs
			return m, nil
		}
		if key.Matches(msg, m.keys.ToggleKind) {
			return m.toggleLogKind()
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	case modeCompare:
		if key.Matches(msg, m.keys.Back) {
			m.cmp.Close()
			m.mode = modeJobs
			return m, nil
		}
		var cmd tea.Cmd
		m.cmp, cmd = m.cmp.Update(msg)
		if !m.cmp.Active() {
			m.mode = modeJobs
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) handleJobsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		job, ok := m.jobs.Selected()
		if !ok {
			return m, nil
		}
		id := stream.Identity{LogKey: job.LogKey, Kind: stream.KindStdout}
		cmd, err := m.log.Open(m.opts.Context, id)
		if err != nil {
			m.jobs.SetStatus(fmt.Sprintf("open log: %v", err))
			return m, nil
		}
		m.mode = modeLog
		m.log.SetSize(m.width, m.height)
		return m, cmd

	case key.Matches(msg, m.keys.Compare):
		sel := m.jobs.Selection()
		if !sel.Ready() {
			m.jobs.SetStatus(fmt.Sprintf("select %d to %d logs first", compare.MinPanes, compare.MaxPanes))
			return m, nil
		}
		cmd, err := m.cmp.Start(m.opts.Context, sel.Identities())
		if err != nil {
			m.jobs.SetStatus(fmt.Sprintf("compare: %v", err))
			return m, nil
		}
		sel.Clear()
		m.mode = modeCompare
		m.cmp.SetSize(m.width, m.height)
		return m, cmd

	case key.Matches(msg, m.keys.Cancel):
		if job, ok := m.jobs.Selected(); ok {
			return m, m.actions.cancel(job.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Resubmit):
		if job, ok := m.jobs.Selected(); ok {
			return m, m.actions.resubmit(job.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jobs, cmd = m.jobs.Update(msg)
	return m, cmd
}

// toggleLogKind reopens the single view on the other stream of the same
// log, reusing the channel close/reopen path.
func (m Model) toggleLogKind() (tea.Model, tea.Cmd) {
	id := m.log.Identity()
	if id.Kind == stream.KindStdout {
		id.Kind = stream.KindStderr
	} else {
		id.Kind = stream.KindStdout
	}
	cmd, err := m.log.Open(m.opts.Context, id)
	if err != nil {
		m.log.status = fmt.Sprintf("open %s: %v", id.Kind, err)
		return m, nil
	}
	return m, cmd
}

func (m Model) savePrefs() {
	p := m.opts.Prefs
	p.Theme = m.theme.Name
	if err := prefs.Save(m.opts.PrefsPath, p); err == nil {
		m.opts.Prefs = p
	}
}

func (m Model) View() string {
	switch m.mode {
	case modeLog:
		return m.log.View()
	case modeCompare:
		return m.cmp.View()
	default:
		return m.jobs.View()
	}
}

// actionRunner issues job actions as commands.
type actionRunner struct {
	client api.Fetcher
}

func (a actionRunner) cancel(jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchRequestTimeout)
		defer cancel()
		err := a.client.CancelJob(ctx, jobID)
		return actionDoneMsg{verb: "cancel", jobID: jobID, err: err}
	}
}

func (a actionRunner) resubmit(jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchRequestTimeout)
		defer cancel()
		newID, err := a.client.ResubmitJob(ctx, jobID)
		return actionDoneMsg{verb: "resubmit", jobID: newID, err: err}
	}
}

// Run boots the TUI and blocks until exit.
func Run(opts Options) error {
	model := New(opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := program.Run()
	return err
}
