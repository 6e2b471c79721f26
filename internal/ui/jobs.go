package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pkendall/sluice/internal/api"
	"github.com/pkendall/sluice/internal/compare"
	"github.com/pkendall/sluice/internal/state"
	"github.com/pkendall/sluice/internal/stream"
)

// JobList is the job picker: live jobs from the scheduler on top, recent
// jobs recovered from log files below.
type JobList struct {
	styles Styles
	keys   KeyMap

	store     *state.Store
	cursor    int
	selection *compare.Selection
	status    string

	width  int
	height int
}

func NewJobList(styles Styles, keys KeyMap, store *state.Store) JobList {
	return JobList{
		styles:    styles,
		keys:      keys,
		store:     store,
		selection: &compare.Selection{},
	}
}

// rows flattens running and recent jobs into one navigable list.
func (j JobList) rows() []api.Job {
	snap := j.store.Snapshot()
	rows := make([]api.Job, 0, len(snap.Running)+len(snap.Recent))
	rows = append(rows, snap.Running...)
	rows = append(rows, snap.Recent...)
	return rows
}

// Selected returns the job under the cursor.
func (j JobList) Selected() (api.Job, bool) {
	rows := j.rows()
	if j.cursor < 0 || j.cursor >= len(rows) {
		return api.Job{}, false
	}
	return rows[j.cursor], true
}

// Selection returns the compare selection set.
func (j *JobList) Selection() *compare.Selection { return j.selection }

// SetStatus sets transient footer text.
func (j *JobList) SetStatus(s string) { j.status = s }

// SetSize resizes the list.
func (j *JobList) SetSize(width, height int) {
	j.width = width
	j.height = height
}

func (j JobList) Update(msg tea.Msg) (JobList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return j, nil
	}
	rows := j.rows()
	switch {
	case key.Matches(keyMsg, j.keys.Down):
		if j.cursor < len(rows)-1 {
			j.cursor++
		}
	case key.Matches(keyMsg, j.keys.Up):
		if j.cursor > 0 {
			j.cursor--
		}
	case key.Matches(keyMsg, j.keys.Top):
		j.cursor = 0
	case key.Matches(keyMsg, j.keys.Bottom):
		if len(rows) > 0 {
			j.cursor = len(rows) - 1
		}
	case key.Matches(keyMsg, j.keys.Select):
		if job, ok := j.Selected(); ok {
			id := stream.Identity{LogKey: job.LogKey, Kind: stream.KindStdout}
			if err := j.selection.Toggle(id); err != nil {
				j.status = err.Error()
			} else {
				j.status = fmt.Sprintf("%d selected for compare", j.selection.Len())
			}
		}
	}
	return j, nil
}

func (j JobList) View() string {
	snap := j.store.Snapshot()
	var b strings.Builder

	b.WriteString(j.styles.Header.Render("sluice — cluster logs"))
	b.WriteByte('\n')
	if snap.IsOffline() {
		b.WriteString(j.styles.DangerText.Render("daemon unreachable"))
		b.WriteByte('\n')
	}

	row := 0
	writeSection := func(title string, jobs []api.Job) {
		b.WriteString(j.styles.AccentText.Render(title))
		b.WriteByte('\n')
		if len(jobs) == 0 {
			b.WriteString(j.styles.MutedText.Render("  none"))
			b.WriteByte('\n')
		}
		for _, job := range jobs {
			line := j.renderRow(job, row == j.cursor)
			b.WriteString(line)
			b.WriteByte('\n')
			row++
		}
	}
	writeSection("Running", snap.Running)
	writeSection("Recent", snap.Recent)

	footer := j.status
	if footer == "" && !snap.LastUpdated.IsZero() {
		footer = "updated " + snap.LastUpdated.Format("15:04:05")
	}
	b.WriteString(j.styles.Footer.Render(footer))
	return b.String()
}

func (j JobList) renderRow(job api.Job, selected bool) string {
	mark := "  "
	id := stream.Identity{LogKey: job.LogKey, Kind: stream.KindStdout}
	if j.selection.Contains(id) {
		mark = j.styles.InfoText.Render("◆ ")
	}
	badge := j.styles.StateStyle(job.State).Render(job.State)
	meta := job.Updated
	if job.Size != "" {
		meta = strings.TrimSpace(meta + "  " + job.Size)
	}
	line := fmt.Sprintf("%s%-8s %-24s %s  %s", mark, job.ID, job.Name, badge, j.styles.MutedText.Render(meta))
	if selected {
		return j.styles.Selected.Render(line)
	}
	return line
}
