package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the resource browser.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	More key.Binding

	// Overlay.
	Search      key.Binding
	Close       key.Binding
	Select      key.Binding
	ScopeToggle key.Binding

	// OverlayBookmark works inside the overlay, where letters are typed
	// into the query.
	OverlayBookmark key.Binding

	Bookmark  key.Binding
	SortNext  key.Binding
	OrderFlip key.Binding
	Refresh   key.Binding
	SignOut   key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	More: key.NewBinding(
		key.WithKeys("m", "pgdown"),
		key.WithHelp("m", "more"),
	),
	Search: key.NewBinding(
		key.WithKeys("/", "ctrl+k"),
		key.WithHelp("/", "search"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "close"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "go to"),
	),
	ScopeToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "catalog/bookmarks"),
	),
	Bookmark: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "bookmark"),
	),
	SortNext: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	OrderFlip: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "asc/desc"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "sign out"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
	OverlayBookmark: key.NewBinding(
		key.WithKeys("ctrl+b"),
		key.WithHelp("C-b", "bookmark"),
	),
}
