package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/abelbrown/hackerstories/internal/config"
	"github.com/abelbrown/hackerstories/internal/fetch"
	"github.com/abelbrown/hackerstories/internal/logging"
	"github.com/abelbrown/hackerstories/internal/otel"
	"github.com/abelbrown/hackerstories/internal/session"
	"github.com/abelbrown/hackerstories/internal/store"
	"github.com/abelbrown/hackerstories/internal/story"
)

func runSearch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stdout)
	pages := fs.Int("pages", 1, "Number of pages to load")
	sortBy := fs.String("sort", "", "Sort by title, author, comments or points")
	desc := fs.Bool("desc", false, "Sort descending")
	endpoint := fs.String("endpoint", "", "Override the search endpoint")
	showURLs := fs.Bool("urls", false, "Print story URLs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	term := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(term) == "" {
		return errors.New("usage: hs search [--pages N] [--sort key] [--desc] <term>")
	}
	key, ok := story.ParseSortKey(*sortBy)
	if !ok {
		return fmt.Errorf("unknown sort key %q", *sortBy)
	}
	if *pages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", *pages)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *endpoint != "" {
		cfg.Fetch.Endpoint = *endpoint
	}
	logging.SetOutput(os.Stderr, "warn")

	events, closeEvents := cliEventLog()
	defer closeEvents()

	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer st.Close()

	client := fetch.NewClient(fetch.Options{
		Endpoint:      cfg.Fetch.Endpoint,
		UserAgent:     cfg.Fetch.UserAgent,
		Timeout:       cfg.Fetch.Timeout,
		RatePerSecond: cfg.Fetch.RatePerSecond,
		Events:        events,
	})
	repo := fetch.NewCached(client, st, cfg.Cache.TTL, events, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctrl := session.New(cfg.Session.RecentLimit)
	req, err := ctrl.SubmitSearch(term)
	if err != nil {
		return err
	}
	for i := 0; ; i++ {
		kind := otel.KindSearchSubmit
		if req.Page > 0 {
			kind = otel.KindSearchMore
		}
		events.Search(kind, req.QueryID, req.Term, req.Page)
		if err := session.Run(otel.WithQueryID(ctx, req.QueryID), ctrl, repo, req); err != nil {
			return err
		}
		if snap := ctrl.Snapshot(); snap.State == session.Error {
			events.Emit(otel.Event{
				Level: otel.LevelError, Kind: otel.KindSearchError, Comp: "session",
				QueryID: req.QueryID, Term: req.Term, Page: req.Page, Err: snap.Err.Error(),
			})
			fmt.Fprintln(stdout, snap.Banner)
			return snap.Err
		}
		events.Search(otel.KindSearchComplete, req.QueryID, req.Term, req.Page)

		if i+1 >= *pages {
			break
		}
		next, ok := ctrl.LoadMore()
		if !ok {
			break
		}
		req = next
	}

	if key != story.SortNone {
		ctrl.Reorder(key)
		if *desc {
			ctrl.Reorder(key)
		}
	}

	printStories(stdout, ctrl.Snapshot(), *showURLs)
	return nil
}

// printStories writes the projected list in snapshot order.
func printStories(w io.Writer, snap session.Snapshot, showURLs bool) {
	more := ""
	if snap.HasMore {
		more = ", more available"
	}
	fmt.Fprintf(w, "%d stories for %q (%d pages%s)\n", len(snap.Stories), snap.Term, snap.LastPage+1, more)
	if snap.Sort.Key != story.SortNone {
		fmt.Fprintf(w, "sorted by %s %s\n", strings.ToLower(snap.Sort.Key.String()), snap.Sort.Dir)
	}
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for i, s := range snap.Stories {
		fmt.Fprintf(w, "%3d. %s\n", i+1, truncate(s.Title, 74))
		fmt.Fprintf(w, "     %d points | %d comments | by %s\n", s.Points, s.NumComments, s.Author)
		if showURLs && s.URL != "" {
			fmt.Fprintf(w, "     %s\n", s.URL)
		}
	}
}

// cliEventLog appends to the shared event log so CLI searches show up in
// 'hs events'. Falls back to a null logger when the log cannot be opened.
func cliEventLog() (*otel.Logger, func()) {
	path := config.EventLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logging.Warn("event log disabled", "error", err)
		l := otel.NewNullLogger()
		return l, l.Close
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logging.Warn("event log disabled", "error", err)
		l := otel.NewNullLogger()
		return l, l.Close
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}
}
