package otel

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// l.mu guards the ring pointer only; drain releases it before Push.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the async write queue. Emit drops when it is full.
const queueSize = 4096

// pending pairs the encoded line with the event it came from, so the ring
// keeps fields that JSON omits (Dur).
type pending struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL from a background goroutine.
// All methods are goroutine-safe.
type Logger struct {
	sessionID string
	w         io.Writer
	ch        chan pending
	done      chan struct{}

	mu   sync.Mutex
	ring *RingBuffer

	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes and stops it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		sessionID: uuid.NewString(),
		w:         w,
		ch:        make(chan pending, queueSize),
		done:      make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger returns a Logger that discards output. The ring buffer,
// if attached, still receives events.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) drain() {
	defer close(l.done)
	for p := range l.ch {
		if _, err := l.w.Write(p.line); err != nil {
			l.dropped.Add(1)
		}

		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()

		if ring != nil {
			ring.Push(p.ev)
		}
	}
}

// SessionID identifies this process run in every emitted event.
func (l *Logger) SessionID() string { return l.sessionID }

// Emit queues e for writing. It stamps Time (when zero) and SessionID and
// never blocks: a full queue or a closed logger counts the event as dropped.
func (l *Logger) Emit(e Event) {
	// Close may win the race between the closed check and the send.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.sessionID

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	select {
	case l.ch <- pending{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is logged with an empty message.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: msg})
}

// Search emits a session event for one page of a query.
func (l *Logger) Search(kind EventKind, qid, term string, page int) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: "session", QueryID: qid, Term: term, Page: page})
}

// SetRingBuffer attaches r so the debug overlay can read recent events.
func (l *Logger) SetRingBuffer(r *RingBuffer) {
	l.mu.Lock()
	l.ring = r
	l.mu.Unlock()
}

// Dropped reports how many events were lost since creation.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains queued events and stops the writer. Later Emit calls are
// dropped. Close is idempotent.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "hackerstories: %d events dropped in session %s\n", n, l.sessionID)
		}
	})
}
