package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap defines the key bindings of the console and the launch form.
type keyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Select    key.Binding
	Reload    key.Binding
	Dismiss   key.Binding
	Launch    key.Binding

	// launch form
	Submit     key.Binding
	Cancel     key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	AddTier    key.Binding
	RemoveTier key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "toggle help"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show offerings"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss error"),
		),
		Launch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "launch Tiered STO"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "launch"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		AddTier: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "add tier"),
		),
		RemoveTier: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "remove tier"),
		),
	}
}
