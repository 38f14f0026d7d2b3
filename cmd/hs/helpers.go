package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// eventRecord mirrors otel.Event for JSON decoding. Decoding from the raw
// JSONL keeps the viewer working across schema changes.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	QueryID   string         `json:"qid"`
	DurMs     float64        `json:"dur_ms"`
	Term      string         `json:"term"`
	Page      int            `json:"page"`
	Count     int            `json:"count"`
	Status    int            `json:"status"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readEvents decodes every line of r that passes match. Undecodable lines are
// skipped. n > 0 keeps only the last n matches.
func readEvents(r io.Reader, n int, match func(eventRecord) bool) ([]parsedLine, error) {
	scanner := bufio.NewScanner(r)
	// Extra maps can make lines long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []parsedLine
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if match != nil && !match(ev) {
			continue
		}
		out = append(out, parsedLine{ev: ev, raw: append([]byte(nil), raw...)})
		if n > 0 && len(out) > n {
			out = out[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return out, nil
}

// openEventLog opens the log at path with a hint when it does not exist yet.
func openEventLog(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("event log not found at %s (run hackerstories first to generate events)", path)
		}
		return nil, err
	}
	return f, nil
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
