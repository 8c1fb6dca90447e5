package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Top           key.Binding
	Expand        key.Binding
	ExpandAll     key.Binding
	Previous      key.Binding
	Open          key.Binding
	Copy          key.Binding
	OpenUser      key.Binding
	Search        key.Binding
	Back          key.Binding
	Retry         key.Binding
	MuteAuthor    key.Binding
	ToggleHelp    key.Binding
	ToggleVerbose key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l", "right")),
		PageUp:        key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:      key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdown", "page down")),
		Top:           key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Expand:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand item")),
		ExpandAll:     key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		Previous:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous page")),
		Open:          key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy URL")),
		OpenUser:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open user")),
		Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Back:          key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
		Retry:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		MuteAuthor:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute author")),
		ToggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		ToggleVerbose: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verbose toolbar")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
