package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pkendall/sluice/internal/render"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	Background string
	Surface    string
	SurfaceAlt string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StateColors maps scheduler job states to badge colors.
	StateColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)),

		PaneFocus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderFocus)),

		LineNumber: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		MatchOther: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)),

		MatchCurrent: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Warning)).
			Foreground(lipgloss.Color(t.Background)),

		AnnotationMark: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)).
			Bold(true),

		stateColors: t.StateColors,
		background:  t.Background,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header   lipgloss.Style
	Footer   lipgloss.Style
	Selected lipgloss.Style

	Pane      lipgloss.Style
	PaneFocus lipgloss.Style

	LineNumber     lipgloss.Style
	MatchOther     lipgloss.Style
	MatchCurrent   lipgloss.Style
	AnnotationMark lipgloss.Style

	stateColors map[string]string
	background  string
}

// StateStyle returns a badge style for a scheduler job state.
func (s Styles) StateStyle(state string) lipgloss.Style {
	color := s.stateColors[state]
	if color == "" {
		color = "#6272A4"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// ClassStyle maps a derived line class to its text style.
func (s Styles) ClassStyle(class render.Class) lipgloss.Style {
	switch class {
	case render.ClassTraceback, render.ClassError:
		return s.DangerText
	case render.ClassWarning:
		return s.WarningText
	case render.ClassSuccess:
		return s.SuccessText
	case render.ClassTimestamp:
		return s.MutedText
	case render.ClassMetric:
		return s.InfoText
	default:
		return s.Text
	}
}

var themes = map[string]Theme{
	"Dracula": draculaTheme(),
	"Slate":   slateTheme(),
}

var themeOrder = []string{"Dracula", "Slate"}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return draculaTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func draculaTheme() Theme {
	// Official Dracula palette: https://draculatheme.com/spec
	return Theme{
		Name: "Dracula",

		Background: "#191A21",
		Surface:    "#282A36",
		SurfaceAlt: "#21222C",

		SelectionBg:   "#44475A",
		SelectionText: "#F8F8F2",

		Border:      "#44475A",
		BorderFocus: "#BD93F9",

		Text:    "#F8F8F2",
		Muted:   "#6272A4",
		Accent:  "#BD93F9",
		Success: "#50FA7B",
		Warning: "#FFB86C",
		Danger:  "#FF5555",
		Info:    "#8BE9FD",

		StateColors: map[string]string{
			"RUNNING":    "#50FA7B",
			"PENDING":    "#FFB86C",
			"COMPLETING": "#8BE9FD",
			"COMPLETED":  "#6272A4",
			"FAILED":     "#FF5555",
			"CANCELLED":  "#6272A4",
			"TIMEOUT":    "#FF5555",
			"OUT_OF_ME+": "#FF5555",
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617",
		Surface:    "#0f172a",
		SurfaceAlt: "#1e293b",

		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",

		Border:      "#334155",
		BorderFocus: "#38bdf8",

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",

		StateColors: map[string]string{
			"RUNNING":    "#22c55e",
			"PENDING":    "#f59e0b",
			"COMPLETING": "#06b6d4",
			"COMPLETED":  "#64748b",
			"FAILED":     "#ef4444",
			"CANCELLED":  "#64748b",
			"TIMEOUT":    "#ef4444",
			"OUT_OF_ME+": "#ef4444",
		},
	}
}
