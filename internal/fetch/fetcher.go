// Package fetch retrieves pages of Hacker News stories from the Algolia
// search API.
//
// Client talks HTTP. Cached wraps any story.Repository with a page cache
// and coalesces identical concurrent requests.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/abelbrown/hackerstories/internal/logging"
	"github.com/abelbrown/hackerstories/internal/metrics"
	"github.com/abelbrown/hackerstories/internal/otel"
	"github.com/abelbrown/hackerstories/internal/story"
)

const (
	DefaultEndpoint  = "https://hn.algolia.com/api/v1/search"
	DefaultUserAgent = "hackerstories/0.1 (+https://github.com/abelbrown/hackerstories)"
	DefaultTimeout   = 30 * time.Second

	maxBodyBytes = 10 << 20
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %s", e.Status)
}

func (e *StatusError) Unwrap() error { return story.ErrFetchFailure }

// Options configures a Client. Zero values select defaults; a zero
// RatePerSecond disables pacing.
type Options struct {
	Endpoint      string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	HTTPClient    *http.Client
	Events        *otel.Logger
	Metrics       *metrics.Metrics
}

// Client fetches story pages over HTTP.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	events    *otel.Logger
	metrics   *metrics.Metrics
	log       *log.Logger
}

var _ story.Repository = (*Client)(nil)

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Client{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		http:      hc,
		limiter:   rate.NewLimiter(limit, 1),
		events:    opts.Events,
		metrics:   opts.Metrics,
		log:       logging.WithPrefix("fetch"),
	}
}

// hit is one Algolia search hit. Comment hits carry their story's title in
// story_title and a null title.
type hit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	StoryTitle  string `json:"story_title"`
	URL         string `json:"url"`
	StoryURL    string `json:"story_url"`
	Author      string `json:"author"`
	NumComments int    `json:"num_comments"`
	Points      int    `json:"points"`
}

type searchResponse struct {
	Hits    []hit `json:"hits"`
	Page    int   `json:"page"`
	NbPages int   `json:"nbPages"`
	NbHits  int   `json:"nbHits"`
}

// pageURL builds the request URL for term and page.
func (c *Client) pageURL(term string, page int) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("query", term)
	q.Set("page", strconv.Itoa(page))
	q.Set("hitsPerPage", strconv.Itoa(story.PageSize))
	q.Set("tags", "story")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchPage retrieves one page of stories for term. Every error wraps
// story.ErrFetchFailure.
func (c *Client) FetchPage(ctx context.Context, term string, page int) (story.Page, error) {
	qid := otel.QueryID(ctx)
	c.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, QueryID: qid, Term: term, Page: page})

	start := time.Now()
	p, status, err := c.fetch(ctx, term, page)
	dur := time.Since(start)
	c.metrics.FetchDone(dur, err)

	if err != nil {
		c.log.Warn("fetch failed", "term", term, "page", page, "error", err)
		c.emit(otel.Event{
			Level: otel.LevelError, Kind: otel.KindFetchError, QueryID: qid,
			Term: term, Page: page, Status: status, Dur: dur, Err: err.Error(),
		})
		return story.Page{}, err
	}

	c.log.Debug("fetched page", "term", term, "page", page, "hits", len(p.Stories), "dur", dur)
	c.emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindFetchComplete, QueryID: qid,
		Term: term, Page: page, Status: status, Dur: dur, Count: len(p.Stories),
	})
	return p, nil
}

func (c *Client) fetch(ctx context.Context, term string, page int) (story.Page, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return story.Page{}, 0, fmt.Errorf("%w: rate limiter: %w", story.ErrFetchFailure, err)
	}

	target, err := c.pageURL(term, page)
	if err != nil {
		return story.Page{}, 0, fmt.Errorf("%w: %w", story.ErrFetchFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return story.Page{}, 0, fmt.Errorf("%w: create request: %w", story.ErrFetchFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return story.Page{}, 0, fmt.Errorf("%w: %w", story.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return story.Page{}, resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var sr searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&sr); err != nil {
		return story.Page{}, resp.StatusCode, fmt.Errorf("%w: decode response: %w", story.ErrFetchFailure, err)
	}
	return toPage(term, page, sr), resp.StatusCode, nil
}

// toPage converts a decoded response. The requested page number wins over
// the echoed one so callers can rely on it.
func toPage(term string, page int, sr searchResponse) story.Page {
	stories := make([]story.Story, 0, len(sr.Hits))
	for _, h := range sr.Hits {
		title := h.Title
		if title == "" {
			title = h.StoryTitle
		}
		link := h.URL
		if link == "" {
			link = h.StoryURL
		}
		stories = append(stories, story.Story{
			ObjectID:    h.ObjectID,
			Title:       title,
			Author:      h.Author,
			URL:         link,
			NumComments: h.NumComments,
			Points:      h.Points,
		})
	}
	return story.Page{
		Term:    term,
		Number:  page,
		Stories: stories,
		NbPages: sr.NbPages,
		NbHits:  sr.NbHits,
	}
}

func (c *Client) emit(e otel.Event) {
	if c.events == nil {
		return
	}
	e.Comp = "fetch"
	c.events.Emit(e)
}
