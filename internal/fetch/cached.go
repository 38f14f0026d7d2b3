package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/hackerstories/internal/logging"
	"github.com/abelbrown/hackerstories/internal/metrics"
	"github.com/abelbrown/hackerstories/internal/otel"
	"github.com/abelbrown/hackerstories/internal/story"
)

// PageCache is the storage Cached reads through. *store.Store implements it.
type PageCache interface {
	GetPage(term string, page int, maxAge time.Duration) (story.Page, bool, error)
	SavePage(p story.Page) error
}

// Cached serves pages from a PageCache and falls back to the wrapped
// repository. Concurrent misses for the same page share one fetch.
type Cached struct {
	repo    story.Repository
	cache   PageCache
	ttl     time.Duration
	group   singleflight.Group
	events  *otel.Logger
	metrics *metrics.Metrics
}

var _ story.Repository = (*Cached)(nil)

// NewCached wraps repo. Pages older than ttl are refetched; ttl <= 0 keeps
// pages forever.
func NewCached(repo story.Repository, cache PageCache, ttl time.Duration, events *otel.Logger, m *metrics.Metrics) *Cached {
	return &Cached{repo: repo, cache: cache, ttl: ttl, events: events, metrics: m}
}

// FetchPage returns a cached page when one is fresh, otherwise fetches and
// stores it. Cache read and write errors are logged and never fail the call.
func (c *Cached) FetchPage(ctx context.Context, term string, page int) (story.Page, error) {
	qid := otel.QueryID(ctx)

	p, ok, err := c.cache.GetPage(term, page, c.ttl)
	if err != nil {
		logging.Warn("cache read failed", "term", term, "page", page, "error", err)
		c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, QueryID: qid, Term: term, Page: page, Err: err.Error()})
	}
	if ok {
		c.metrics.CacheLookup(true)
		c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, QueryID: qid, Term: term, Page: page, Count: len(p.Stories)})
		return p, nil
	}
	c.metrics.CacheLookup(false)
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheMiss, QueryID: qid, Term: term, Page: page})

	key := fmt.Sprintf("%s\x00%d", term, page)
	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		fp, err := c.repo.FetchPage(context.WithoutCancel(ctx), term, page)
		if err != nil {
			return story.Page{}, err
		}
		if err := c.cache.SavePage(fp); err != nil {
			logging.Warn("cache write failed", "term", term, "page", page, "error", err)
			c.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, QueryID: qid, Term: term, Page: page, Err: err.Error()})
		}
		return fp, nil
	})

	select {
	case <-ctx.Done():
		return story.Page{}, fmt.Errorf("%w: %w", story.ErrFetchFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return story.Page{}, res.Err
		}
		return res.Val.(story.Page), nil
	}
}

func (c *Cached) emit(e otel.Event) {
	if c.events == nil {
		return
	}
	e.Comp = "cache"
	c.events.Emit(e)
}
