package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hackerstories/internal/session"
	"github.com/abelbrown/hackerstories/internal/story"
)

func makeStories(n int) []story.Story {
	out := make([]story.Story, n)
	for i := range out {
		out[i] = story.Story{
			ObjectID:    fmt.Sprint(i),
			Title:       fmt.Sprintf("Story number %d", i),
			Author:      "pg",
			NumComments: i * 2,
			Points:      i * 10,
		}
	}
	return out
}

func TestCalcScrollOffset(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		cursor     int
		height     int
		wantOffset int
	}{
		{"empty", 0, 0, 10, 0},
		{"cursor at top", 100, 0, 30, 0},
		{"cursor within viewport", 100, 10, 30, 0},
		{"cursor at viewport edge", 100, 29, 30, 0},
		{"cursor one past viewport", 100, 30, 30, 1},
		{"cursor far down", 100, 99, 30, 70},
		{"cursor beyond end", 10, 50, 5, 5},
		{"small viewport", 100, 10, 5, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calcScrollOffset(tt.n, tt.cursor, tt.height); got != tt.wantOffset {
				t.Errorf("calcScrollOffset(%d, %d, %d) = %d, want %d", tt.n, tt.cursor, tt.height, got, tt.wantOffset)
			}
		})
	}
}

func TestRenderStoriesWindow(t *testing.T) {
	stories := makeStories(50)
	out := RenderStories(stories, 45, 100, 10)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("rendered %d lines, want 10", len(lines))
	}
	if !strings.Contains(out, "Story number 45") {
		t.Error("cursor row should be visible")
	}
	if strings.Contains(out, "Story number 35\n") || strings.Contains(out, "Story number 35 ") {
		t.Error("rows above the window should be hidden")
	}
}

func TestRenderStoriesEmpty(t *testing.T) {
	if out := RenderStories(nil, 0, 80, 10); !strings.Contains(out, "No stories") {
		t.Errorf("empty render = %q", out)
	}
}

func TestRenderStoryLineColumns(t *testing.T) {
	s := story.Story{ObjectID: "1", Title: "Show HN: x", Author: "dang", NumComments: 42, Points: 311}
	line := renderStoryLine(s, false, 100)

	for _, want := range []string{"Show HN: x", "dang", "42", "311"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %q", want, line)
		}
	}
	if w := lipgloss.Width(line); w > 100 {
		t.Errorf("line width %d exceeds terminal", w)
	}
}

func TestRenderStoryLineTruncatesTitle(t *testing.T) {
	s := story.Story{Title: strings.Repeat("ü", 300), Author: "a"}
	line := renderStoryLine(s, true, 80)
	if !strings.Contains(line, "…") {
		t.Error("long title should be truncated with an ellipsis")
	}
}

func TestRenderStoryLineWideRunes(t *testing.T) {
	ascii := story.Story{Title: "plain title", Author: "pg", NumComments: 1, Points: 2}
	wide := story.Story{Title: strings.Repeat("漢", 200), Author: strings.Repeat("名", 20), NumComments: 1, Points: 2}

	for _, selected := range []bool{false, true} {
		want := lipgloss.Width(renderStoryLine(ascii, selected, 120))
		if got := lipgloss.Width(renderStoryLine(wide, selected, 120)); got != want {
			t.Errorf("selected=%v: wide row is %d cells, ascii row is %d", selected, got, want)
		}
	}
}

func TestRenderRecentWideTerm(t *testing.T) {
	out := RenderRecent([]string{strings.Repeat("語", 40)}, 200)
	if w := lipgloss.Width(out); w > 40 {
		t.Errorf("chip is %d cells wide: %q", w, out)
	}
}

func TestRenderColumnHeader(t *testing.T) {
	tests := []struct {
		sort session.SortState
		want string
	}{
		{session.SortState{}, "1 Title"},
		{session.SortState{Key: story.SortTitle}, "1 Title ▲"},
		{session.SortState{Key: story.SortComments, Dir: session.Desc}, "3 Comments ▼"},
		{session.SortState{Key: story.SortPoints}, "4 Points ▲"},
	}
	for _, tt := range tests {
		if got := RenderColumnHeader(tt.sort, 120); !strings.Contains(got, tt.want) {
			t.Errorf("header for %+v = %q, want %q", tt.sort, got, tt.want)
		}
	}
	if got := RenderColumnHeader(session.SortState{}, 120); strings.ContainsAny(got, "▲▼") {
		t.Errorf("unsorted header should have no arrow: %q", got)
	}
}

func TestRenderRecent(t *testing.T) {
	if RenderRecent(nil, 80) != "" {
		t.Error("no terms should render nothing")
	}
	out := RenderRecent([]string{"React", "Cypress"}, 120)
	if !strings.Contains(out, "F1 React") || !strings.Contains(out, "F2 Cypress") {
		t.Errorf("recent = %q", out)
	}
}

func TestRenderStatusBar(t *testing.T) {
	loaded := session.Snapshot{State: session.Loaded, Stories: makeStories(20), HasMore: true}
	if out := RenderStatusBar(loaded, 4, 120, "*"); !strings.Contains(out, "5/20") || !strings.Contains(out, ":more") {
		t.Errorf("loaded status = %q", out)
	}

	last := session.Snapshot{State: session.Loaded, Stories: makeStories(3)}
	if out := RenderStatusBar(last, 0, 120, "*"); strings.Contains(out, ":more") {
		t.Errorf("more hint shown without more pages: %q", out)
	}

	loading := session.Snapshot{State: session.Loading, Term: "Go"}
	if out := RenderStatusBar(loading, 0, 120, "*"); !strings.Contains(out, `Searching "Go"`) {
		t.Errorf("loading status = %q", out)
	}
}

func TestTruncateCells(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"日本語テキスト", 5, "日本…"},
		{"日本語", 6, "日本語"},
		{"x", 0, ""},
	}
	for _, tt := range tests {
		if got := truncateCells(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateCells(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
