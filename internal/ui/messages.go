// Package ui provides the Bubble Tea TUI for hackerstories.
package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hackerstories/internal/session"
	"github.com/abelbrown/hackerstories/internal/story"
)

// PageLoaded is sent when a page fetch issued by the session finishes.
type PageLoaded struct {
	Req  session.Request
	Page story.Page
	Err  error
}

// FetchWith returns the fetch command factory for repo. The command runs in
// Bubble Tea's goroutine pool and reports back with PageLoaded.
func FetchWith(repo story.Repository) func(ctx context.Context, req session.Request) tea.Cmd {
	return func(ctx context.Context, req session.Request) tea.Cmd {
		return func() tea.Msg {
			page, err := req.Do(ctx, repo)
			return PageLoaded{Req: req, Page: page, Err: err}
		}
	}
}
