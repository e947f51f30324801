package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add         key.Binding
	Edit        key.Binding
	Toggle      key.Binding
	Delete      key.Binding
	Search      key.Binding
	Clear       key.Binding
	Filter      key.Binding
	PickFilter  key.Binding
	Up          key.Binding
	Down        key.Binding
	TimerToggle key.Binding
	TimerReset  key.Binding
	TimerMode   key.Binding
	DarkMode    key.Binding
	Quote       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Toggle:      key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x/space", "done")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next filter")),
		PickFilter:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "pick filter")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		TimerToggle: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "start/pause timer")),
		TimerReset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset timer")),
		TimerMode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "timer mode")),
		DarkMode:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "dark mode")),
		Quote:       key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "new quote")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.Search, k.Filter, k.TimerToggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Edit, k.Toggle, k.Delete},
		{k.Up, k.Down, k.Search, k.Clear},
		{k.Filter, k.PickFilter, k.DarkMode, k.Quote},
		{k.TimerToggle, k.TimerReset, k.TimerMode, k.Help, k.Quit},
	}
}
