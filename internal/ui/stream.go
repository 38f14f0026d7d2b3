package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/hackerstories/internal/session"
	"github.com/abelbrown/hackerstories/internal/story"
)

// Fixed column widths; the title column takes the rest.
const (
	authorColWidth   = 14
	commentsColWidth = 12
	pointsColWidth   = 10
	minTitleWidth    = 20
)

// titleWidth returns the title column width for a terminal width.
func titleWidth(width int) int {
	w := width - authorColWidth - commentsColWidth - pointsColWidth - 6
	if w < minTitleWidth {
		w = minTitleWidth
	}
	return w
}

// RenderStories renders the visible window of stories, keeping the cursor
// on screen.
func RenderStories(stories []story.Story, cursor, width, height int) string {
	if len(stories) == 0 {
		return HelpStyle.Render("No stories. Press / to search.")
	}
	if height < 1 {
		height = 1
	}

	offset := calcScrollOffset(len(stories), cursor, height)
	end := min(offset+height, len(stories))

	var b strings.Builder
	for i := offset; i < end; i++ {
		b.WriteString(renderStoryLine(stories[i], i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible index so that cursor fits in a
// window of height rows.
func calcScrollOffset(n, cursor, height int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// renderStoryLine renders one row: title, author, comments, points.
func renderStoryLine(s story.Story, selected bool, width int) string {
	title := padRight(truncateCells(s.Title, titleWidth(width)), titleWidth(width))
	author := padRight(truncateCells(s.Author, authorColWidth), authorColWidth)
	comments := padLeft(strconv.Itoa(s.NumComments), commentsColWidth)
	points := padLeft(strconv.Itoa(s.Points), pointsColWidth)

	if selected {
		return SelectedItem.Render(title + " " + author + " " + comments + " " + points)
	}
	return NormalItem.Render(title) + MetaText.Render(author+" "+comments+" "+points)
}

// RenderColumnHeader renders the sortable column titles. The active column
// carries an arrow for its direction.
func RenderColumnHeader(sort session.SortState, width int) string {
	label := func(k story.SortKey, n int) string {
		text := fmt.Sprintf("%d %s", n, k)
		if sort.Key != k {
			return text
		}
		arrow := "▲"
		if sort.Dir == session.Desc {
			arrow = "▼"
		}
		return ActiveColumn.Render(text + " " + arrow)
	}

	title := padRight(label(story.SortTitle, 1), titleWidth(width))
	author := padRight(label(story.SortAuthor, 2), authorColWidth)
	comments := padLeft(label(story.SortComments, 3), commentsColWidth)
	points := padLeft(label(story.SortPoints, 4), pointsColWidth)
	return ColumnHeader.Render(title + " " + author + " " + comments + " " + points)
}

// RenderRecent renders the recent search chips with their shortcut keys.
func RenderRecent(terms []string, width int) string {
	if len(terms) == 0 {
		return ""
	}
	chips := make([]string, len(terms))
	for i, t := range terms {
		chips[i] = RecentChip.Render(RecentKey.Render(fmt.Sprintf("F%d ", i+1)) + truncateCells(t, 24))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(lipgloss.JoinHorizontal(lipgloss.Top, chips...))
}

// RenderStatusBar renders the bottom bar: position and state on the left,
// key hints on the right.
func RenderStatusBar(snap session.Snapshot, cursor, width int, spin string) string {
	var left string
	switch snap.State {
	case session.Loading:
		left = fmt.Sprintf(" %s Searching %q ", spin, snap.Term)
	case session.LoadingMore:
		left = fmt.Sprintf(" %s Loading page %d ", spin, snap.LastPage+2)
	case session.Loaded:
		if len(snap.Stories) == 0 {
			left = " 0 stories "
		} else {
			left = fmt.Sprintf(" %d/%d ", cursor+1, len(snap.Stories))
		}
	default:
		left = " "
	}

	keys := []string{
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
	}
	if snap.HasMore && snap.State == session.Loaded {
		keys = append(keys, StatusBarKey.Render("m")+StatusBarText.Render(":more"))
	}
	keys = append(keys,
		StatusBarKey.Render("x")+StatusBarText.Render(":dismiss"),
		StatusBarKey.Render("1-4")+StatusBarText.Render(":sort"),
		StatusBarKey.Render("D")+StatusBarText.Render(":debug"),
		StatusBarKey.Render("q")+StatusBarText.Render(":quit"),
	)
	hints := strings.Join(keys, " ")

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(hints)-2, 0)
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + hints)
}

// truncateCells shortens s to at most n terminal cells, ending with "…" when
// cut. Wide runes count as two cells.
func truncateCells(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return runewidth.Truncate(s, n, "…")
}

func padRight(s string, w int) string {
	if pad := w - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func padLeft(s string, w int) string {
	if pad := w - lipgloss.Width(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
