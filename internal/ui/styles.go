package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("208") // HN orange
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorError     = lipgloss.Color("196")
)

// SelectedItem style for the highlighted story row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// NormalItem style for other story rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252")).
	Padding(0, 1)

// MetaText style for author, comment and point columns.
var MetaText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ColumnHeader style for the sortable column header row.
var ColumnHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	Padding(0, 1)

// ActiveColumn marks the column the list is sorted by.
var ActiveColumn = lipgloss.NewStyle().
	Bold(true).
	Underline(true).
	Foreground(colorHighlight)

// SearchBar style for the search input row.
var SearchBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("238")).
	Padding(0, 1)

// RecentChip style for a recent search button.
var RecentChip = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// RecentKey style for the key hint inside a recent chip.
var RecentKey = lipgloss.NewStyle().
	Foreground(colorMuted)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for the error banner.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HelpStyle for empty-state text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// MoreButton style for the load-more hint below the list.
var MoreButton = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Bold(true).
	Padding(0, 1)

// SpinnerStyle colors the loading spinner.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(colorPrimary)

// DebugPanel style for the debug overlay border.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorHighlight).
	Padding(1, 2)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
