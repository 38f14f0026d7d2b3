package main

import (
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/abelbrown/hackerstories/internal/config"
	"github.com/abelbrown/hackerstories/internal/store"
)

// eventStats summarizes an event log.
type eventStats struct {
	Events    int
	Sessions  int
	ByKind    map[string]int
	Fetches   int
	FetchMs  []float64 // fetch.complete durations, sorted
	CacheHits int
	CacheMiss int
}

func summarize(lines []parsedLine) eventStats {
	s := eventStats{ByKind: make(map[string]int)}
	sessions := make(map[string]struct{})
	for _, l := range lines {
		ev := l.ev
		s.Events++
		s.ByKind[ev.Kind]++
		if ev.SessionID != "" {
			sessions[ev.SessionID] = struct{}{}
		}
		switch ev.Kind {
		case "fetch.complete":
			s.Fetches++
			s.FetchMs = append(s.FetchMs, ev.DurMs)
		case "cache.hit":
			s.CacheHits++
		case "cache.miss":
			s.CacheMiss++
		}
	}
	s.Sessions = len(sessions)
	slices.Sort(s.FetchMs)
	return s
}

// percentile returns the p-th percentile (0..100) of sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)-1) * p / 100)
	return sorted[i]
}

func runStats(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(stdout)
	file := fs.String("file", config.EventLogPath(), "Event log path")
	session := fs.String("session", "", "Only count events from this session ID prefix")
	cache := fs.Bool("cache", false, "Include page cache statistics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := openEventLog(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	lines, err := readEvents(f, 0, func(ev eventRecord) bool {
		return *session == "" || strings.HasPrefix(ev.SessionID, *session)
	})
	if err != nil {
		return err
	}
	s := summarize(lines)

	fmt.Fprintf(stdout, "Events:                %d\n", s.Events)
	fmt.Fprintf(stdout, "Sessions:              %d\n", s.Sessions)
	fmt.Fprintf(stdout, "Searches submitted:    %d\n", s.ByKind["search.submit"])
	fmt.Fprintf(stdout, "Load more:             %d\n", s.ByKind["search.more"])
	fmt.Fprintf(stdout, "Stale responses:       %d\n", s.ByKind["search.stale"])
	fmt.Fprintf(stdout, "Search errors:         %d\n", s.ByKind["search.error"])

	fmt.Fprintf(stdout, "\nFetches:               %d ok, %d failed\n", s.Fetches, s.ByKind["fetch.error"])
	if s.Fetches > 0 {
		fmt.Fprintf(stdout, "Fetch latency:         p50 %.0fms, p95 %.0fms, max %.0fms\n",
			percentile(s.FetchMs, 50), percentile(s.FetchMs, 95), s.FetchMs[len(s.FetchMs)-1])
	}
	if total := s.CacheHits + s.CacheMiss; total > 0 {
		fmt.Fprintf(stdout, "Cache hit rate:        %.1f%% (%d/%d)\n",
			float64(s.CacheHits)/float64(total)*100, s.CacheHits, total)
	}

	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	fmt.Fprintf(stdout, "\nBy kind (%d):\n", len(kinds))
	for _, k := range kinds {
		fmt.Fprintf(stdout, "  %-20s %d\n", k, s.ByKind[k])
	}

	if !*cache {
		return nil
	}
	return printCacheStats(stdout)
}

// printCacheStats reports the on-disk page cache, if one is configured.
func printCacheStats(w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Page Cache ===")
	if cfg.Cache.Path == ":memory:" {
		fmt.Fprintln(w, "In-memory cache; nothing persisted.")
		return nil
	}

	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer st.Close()

	n, err := st.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Path:                  %s\n", cfg.Cache.Path)
	fmt.Fprintf(w, "Cached pages:          %d\n", n)
	fmt.Fprintf(w, "TTL:                   %s\n", cfg.Cache.TTL)
	return nil
}
