package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Today    key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Rename   key.Binding
	Delete   key.Binding
	Esc      key.Binding
	Help     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	PrevWeek: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
	NextWeek: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
	Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "scroll up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "scroll down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	Rename:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
	Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	Esc:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevWeek, k.NextWeek, k.Today, k.Rename, k.Delete, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevWeek, k.NextWeek, k.Today, k.Refresh},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Rename, k.Delete, k.Esc, k.Help, k.Quit},
	}
}
