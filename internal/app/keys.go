package app

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lightswitch/switchboard/internal/output"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Lines     [output.Lines]key.Binding
	Reconnect key.Binding
	Debug     key.Binding
	Up        key.Binding
	Down      key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings. Keys 1-8 map to lines
// 0-7, left to right.
func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect"),
		),
		Debug: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "debug log"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	for i := range km.Lines {
		k := strconv.Itoa(i + 1)
		km.Lines[i] = key.NewBinding(
			key.WithKeys(k),
			key.WithHelp(k, "toggle line "+k),
		)
	}
	return km
}

// lineFor returns the line index bound to msg, or -1.
func (km KeyMap) lineFor(msg tea.KeyMsg) int {
	for i, b := range km.Lines {
		if key.Matches(msg, b) {
			return i
		}
	}
	return -1
}
