package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings of the progress view
type KeyMap struct {
	Cancel key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("ctrl+c", "esc", "q"),
			key.WithHelp("ctrl+c", "stop after current batch"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Cancel}}
}
