// Package otel records what a search session does as typed events.
//
// Events are serialized as JSONL by an asynchronous Logger. An optional
// RingBuffer keeps the most recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Session events
	KindSearchSubmit   EventKind = "search.submit"
	KindSearchMore     EventKind = "search.more"
	KindSearchComplete EventKind = "search.complete"
	KindSearchStale    EventKind = "search.stale"
	KindSearchError    EventKind = "search.error"
	KindSearchInvalid  EventKind = "search.invalid"
	KindSearchCancel   EventKind = "search.cancel"

	// Repository events
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindCacheHit      EventKind = "cache.hit"
	KindCacheMiss     EventKind = "cache.miss"
	KindCacheError    EventKind = "cache.error"

	// UI events
	KindDismiss EventKind = "ui.dismiss"
	KindSort    EventKind = "ui.sort"
	KindRecent  EventKind = "ui.recent"
	KindKey     EventKind = "ui.key" // only with HS_TRACE

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "session", "fetch", "cache", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	QueryID   string         `json:"qid,omitempty"` // one per submitted search, shared by its pages
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Term      string         `json:"term,omitempty"`
	Page      int            `json:"page,omitempty"`
	Count     int            `json:"count,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status, when there was one
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
