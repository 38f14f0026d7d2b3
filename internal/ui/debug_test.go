package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hackerstories/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if got := debugOverlay(nil, "", 80, 24); got != "" {
		t.Errorf("debugOverlay(nil) = %q, want empty", got)
	}
}

func TestDebugOverlayStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	now := time.Now()
	for _, k := range []otel.EventKind{
		otel.KindSearchSubmit, otel.KindSearchComplete, otel.KindSearchStale,
		otel.KindFetchComplete, otel.KindFetchComplete, otel.KindFetchError,
		otel.KindCacheHit,
	} {
		ring.Push(otel.Event{Kind: k, Time: now})
	}

	out := debugOverlay(ring, "", 80, 40)
	for _, want := range []string{
		"Session Stats",
		"1 submitted, 0 more, 1 complete",
		"1 stale, 0 cancelled, 0 errors",
		"2 complete, 1 errors",
		"1 hits, 0 misses",
		"7 / 64 events",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("overlay missing %q:\n%s", want, out)
		}
	}
}

func TestDebugOverlayCurrentSearch(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	now := time.Now()
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now, QueryID: "aaaaaaaa-1", Term: "React"})
	ring.Push(otel.Event{Kind: otel.KindFetchError, Time: now, QueryID: "aaaaaaaa-1", Term: "React", Err: "timeout"})
	ring.Push(otel.Event{Kind: otel.KindSearchSubmit, Time: now, QueryID: "bbbbbbbb-2", Term: "Cypress"})

	out := debugOverlay(ring, "aaaaaaaa-1", 100, 60)
	if !strings.Contains(out, "Current Search aaaaaaaa") {
		t.Errorf("missing current search section:\n%s", out)
	}
	if !strings.Contains(out, "React#0") || !strings.Contains(out, "ERR:timeout") {
		t.Errorf("missing event details:\n%s", out)
	}
	if !strings.Contains(out, "qid:bbbbbbbb") {
		t.Errorf("recent events should include other searches:\n%s", out)
	}
}

func TestDebugOverlayHeightLimit(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 50; i++ {
		ring.Push(otel.Event{Kind: otel.KindFetchStart, Time: time.Now()})
	}
	out := debugOverlay(ring, "", 80, 15)
	if n := strings.Count(out, "\n") + 1; n > 15 {
		t.Errorf("overlay is %d lines, want <= 15", n)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestDebugStatusBar(t *testing.T) {
	if out := debugStatusBar(80); !strings.Contains(out, "[DEBUG]") || !strings.Contains(out, ":close") {
		t.Errorf("debug status bar = %q", out)
	}
}

func TestDebugToggleViaApp(t *testing.T) {
	app := NewApp(AppConfig{Ring: otel.NewRingBuffer(8)})
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	app, _ = press(model.(App), runes("D"))
	if !strings.Contains(app.View(), "[DEBUG]") {
		t.Error("overlay status bar not shown")
	}
}
