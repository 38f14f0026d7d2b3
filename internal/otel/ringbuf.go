package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is the capacity used when NewRingBuffer gets size <= 0.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events, overwriting the oldest.
// Goroutine-safe.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	size  int
	head  int // next write slot
	count int
}

// NewRingBuffer returns a buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size), size: size}
}

// Push stores e. Extra is copied so later mutation by the caller is not seen.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.mu.Unlock()
}

// at returns the i-th oldest event. Caller holds mu.
func (r *RingBuffer) at(i int) Event {
	start := 0
	if r.count == r.size {
		start = r.head
	}
	return r.buf[(start+i)%r.size]
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.size)
}

// Last returns up to n most recent events, oldest first. n <= 0 yields nil.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}
	n = min(n, r.count)
	out := make([]Event, n)
	for i := range out {
		out[i] = r.at(r.count - n + i)
	}
	return out
}

// ForQuery returns the buffered events carrying qid, oldest first.
func (r *RingBuffer) ForQuery(qid string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for i := 0; i < r.count; i++ {
		if e := r.at(i); e.QueryID == qid {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return r.size
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for i := 0; i < r.count; i++ {
		counts[r.at(i).Kind]++
	}
	return counts
}
