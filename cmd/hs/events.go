package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abelbrown/hackerstories/internal/config"
)

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(stdout)
	file := fs.String("file", config.EventLogPath(), "Event log path")
	tail := fs.Int("tail", 50, "Number of recent lines to show (0 for all)")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	kind := fs.String("kind", "", "Filter by event kind prefix (e.g. 'search')")
	level := fs.String("level", "", "Minimum level: debug, info, warn, error")
	comp := fs.String("comp", "", "Filter by component name")
	qid := fs.String("qid", "", "Filter by query ID")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := openEventLog(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	minLevel := levelRank(*level)
	match := func(ev eventRecord) bool {
		if *kind != "" && !strings.HasPrefix(ev.Kind, *kind) {
			return false
		}
		if *level != "" && levelRank(ev.Level) < minLevel {
			return false
		}
		if *comp != "" && ev.Comp != *comp {
			return false
		}
		if *qid != "" && !strings.HasPrefix(ev.QueryID, *qid) {
			return false
		}
		return true
	}
	show := func(ev eventRecord, raw []byte) {
		if *rawJSON {
			fmt.Fprintln(stdout, string(raw))
			return
		}
		fmt.Fprintln(stdout, formatEvent(ev))
	}

	lines, err := readEvents(f, *tail, match)
	if err != nil {
		return err
	}
	for _, l := range lines {
		show(l.ev, l.raw)
	}
	if !*follow {
		return nil
	}

	// The scanner consumed the file; poll for appended lines.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			show(ev, line)
		}
	}
}

// formatEvent renders one event as a single human-readable line.
func formatEvent(ev eventRecord) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-16s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Term != "" {
		parts = append(parts, fmt.Sprintf("%q#%d", ev.Term, ev.Page))
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", ev.Status))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	if ev.QueryID != "" {
		parts = append(parts, "qid="+shortID(ev.QueryID))
	}
	return strings.Join(parts, " ")
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
