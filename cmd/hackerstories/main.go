// Command hackerstories is the terminal client for searching Hacker News
// stories.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hackerstories/internal/config"
	"github.com/abelbrown/hackerstories/internal/fetch"
	"github.com/abelbrown/hackerstories/internal/logging"
	"github.com/abelbrown/hackerstories/internal/metrics"
	"github.com/abelbrown/hackerstories/internal/otel"
	"github.com/abelbrown/hackerstories/internal/session"
	"github.com/abelbrown/hackerstories/internal/store"
	"github.com/abelbrown/hackerstories/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hackerstories: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.Log.Dir, cfg.Log.Level); err != nil {
		return err
	}
	defer logging.Close()

	// Event log: ~/.hackerstories/events.jsonl
	events, closeEvents, err := openEventLog(config.EventLogPath())
	if err != nil {
		return err
	}
	defer closeEvents()

	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "starting")

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		addr, shutdown, err := m.Serve(cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		events.Info(otel.KindStartup, "metrics", "serving on "+addr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer st.Close()
	if cfg.Cache.TTL > 0 {
		if n, err := st.Prune(cfg.Cache.TTL); err != nil {
			logging.Warn("prune cache", "error", err)
		} else if n > 0 {
			logging.Info("pruned cache", "pages", n)
		}
	}

	client := fetch.NewClient(fetch.Options{
		Endpoint:      cfg.Fetch.Endpoint,
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.Fetch.Timeout,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Events:        events,
		Metrics:       m,
	})
	repo := fetch.NewCached(client, st, cfg.Cache.TTL, events, m)

	app := ui.NewApp(ui.AppConfig{
		Controller:  session.New(cfg.Session.RecentLimit),
		FetchPage:   ui.FetchWith(repo),
		InitialTerm: cfg.Session.InitialTerm,
		Events:      events,
		Ring:        ring,
		Metrics:     m,
	})

	logging.Info("starting ui", "endpoint", cfg.Fetch.Endpoint, "cache", cfg.Cache.Path)
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		events.Error(otel.KindError, "main", err)
		return fmt.Errorf("run ui: %w", err)
	}

	events.Info(otel.KindShutdown, "main", "clean exit")
	return nil
}

// openEventLog opens path for appending and starts an event logger on it.
// The returned func flushes the logger and closes the file.
func openEventLog(path string) (*otel.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}
