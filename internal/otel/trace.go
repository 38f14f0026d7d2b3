package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled turns on per-keystroke UI events. Read on the UI goroutine.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("HS_TRACE") != "")
}

// TraceEnabled reports whether HS_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
