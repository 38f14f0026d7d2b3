package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/abelbrown/hackerstories/internal/story"
)

// keyMap holds the bindings for the results view. The search input has its
// own handling while focused.
type keyMap struct {
	Focus     key.Binding
	Submit    key.Binding
	Blur      key.Binding
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	More      key.Binding
	Dismiss   key.Binding
	SortBy    [4]key.Binding
	Recent    [5]key.Binding
	Debug     key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Focus:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Blur:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "nav")),
		Down:    key.NewBinding(key.WithKeys("j", "down")),
		Top:     key.NewBinding(key.WithKeys("g", "home")),
		Bottom:  key.NewBinding(key.WithKeys("G", "end")),
		More:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "more")),
		Dismiss: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "dismiss")),
		SortBy: [4]key.Binding{
			key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "title")),
			key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "author")),
			key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "comments")),
			key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "points")),
		},
		Recent: [5]key.Binding{
			key.NewBinding(key.WithKeys("f1", "alt+1")),
			key.NewBinding(key.WithKeys("f2", "alt+2")),
			key.NewBinding(key.WithKeys("f3", "alt+3")),
			key.NewBinding(key.WithKeys("f4", "alt+4")),
			key.NewBinding(key.WithKeys("f5", "alt+5")),
		},
		Debug:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// sortKeys maps SortBy bindings to columns.
var sortKeys = [4]story.SortKey{story.SortTitle, story.SortAuthor, story.SortComments, story.SortPoints}
