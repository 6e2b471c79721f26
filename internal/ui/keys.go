package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Open       key.Binding
	Back       key.Binding
	ToggleKind key.Binding
	Follow     key.Binding
	Search     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	Annotate   key.Binding
	NextNote   key.Binding
	PrevNote   key.Binding
	Problems   key.Binding
	Dismiss    key.Binding
	Copy       key.Binding
	Select     key.Binding
	Compare    key.Binding
	SyncScroll key.Binding
	Cancel     key.Binding
	Resubmit   key.Binding
	Theme      key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view logs"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		ToggleKind: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "stdout/stderr"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "prev match"),
		),
		Annotate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "annotate"),
		),
		NextNote: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next note"),
		),
		PrevNote: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev note"),
		),
		Problems: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "problems"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss type"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy line"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		Compare: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compare"),
		),
		SyncScroll: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sync scroll"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "cancel job"),
		),
		Resubmit: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "resubmit"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
