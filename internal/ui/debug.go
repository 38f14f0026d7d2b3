package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/hackerstories/internal/otel"
)

// debugPanelChrome is the rows DebugPanel spends on border and padding.
const debugPanelChrome = 4

// debugOverlay renders session stats and recent events from ring. qid, when
// set, adds a section tracing the current search. Returns "" for a nil ring.
func debugOverlay(ring *otel.RingBuffer, qid string, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  Searches:   %d submitted, %d more, %d complete",
		stats[otel.KindSearchSubmit], stats[otel.KindSearchMore], stats[otel.KindSearchComplete]))
	lines = append(lines, fmt.Sprintf("  Discarded:  %d stale, %d cancelled, %d errors",
		stats[otel.KindSearchStale], stats[otel.KindSearchCancel], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Cache:      %d hits, %d misses",
		stats[otel.KindCacheHit], stats[otel.KindCacheMiss]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if qid != "" {
		lines = append(lines, DebugHeaderStyle.Render("Current Search "+shortID(qid)))
		for _, e := range ring.ForQuery(qid) {
			lines = append(lines, eventLine(e))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(20) {
		lines = append(lines, eventLine(e))
	}

	maxHeight := max(height-debugPanelChrome, 1)
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := min(76, width-4)
	panelWidth = max(panelWidth, 20)

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func eventLine(e otel.Event) string {
	line := fmt.Sprintf("  %6s  %-16s", formatAge(time.Since(e.Time)), string(e.Kind))
	if e.Term != "" {
		line += fmt.Sprintf("  %s#%d", truncateCells(e.Term, 16), e.Page)
	}
	if e.Msg != "" {
		line += "  " + truncateCells(e.Msg, 30)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateCells(e.Err, 30)
	}
	if e.QueryID != "" {
		line += "  qid:" + shortID(e.QueryID)
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatAge formats a duration compactly. Negative durations clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar shown with the overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
