// Package session holds the search session: the paginated result set for the
// active term, dismissals, local sort order, recent terms and the state
// machine tying them together.
//
// The Controller never performs I/O. Operations that need the network hand a
// Request back to the caller, who runs it (Request.Do) and reports the outcome
// through Complete. Responses for superseded requests are rejected with
// ErrStaleResponse.
package session

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/abelbrown/hackerstories/internal/story"
)

// State is the phase of the session.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	LoadingMore
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingMore:
		return "loading_more"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Query identifies one page of one term.
type Query struct {
	Term string
	Page int
}

// Request is an outbound page fetch issued by the Controller.
type Request struct {
	Query
	// Gen increases with every submitted search; a response is only accepted
	// for the generation that is current when it arrives.
	Gen uint64
	// QueryID correlates all pages of one search in the event log.
	QueryID string
}

// Do fetches the requested page from repo. The returned page is stamped with
// the request's term and page number.
func (r Request) Do(ctx context.Context, repo story.Repository) (story.Page, error) {
	p, err := repo.FetchPage(ctx, r.Term, r.Page)
	if err != nil {
		return story.Page{}, err
	}
	p.Term = r.Term
	p.Number = r.Page
	return p, nil
}

// Snapshot is the derived, read-only view of the session.
type Snapshot struct {
	State    State
	Term     string
	QueryID  string
	Stories  []story.Story // projected through Sort; empty in Error
	HasMore  bool
	LastPage int
	Sort     SortState
	Recent   []string
	Err      error
	Banner   string // ErrorBanner in Error, otherwise empty
}

// Controller is the single owner of session state. It is not safe for
// concurrent use; drive it from one goroutine (the Bubble Tea update loop).
type Controller struct {
	state   State
	results *Results
	ledger  *Ledger
	sort    SortState

	gen      uint64
	queryID  string
	pending  Request
	inFlight bool
	err      error
}

// New creates an idle Controller keeping up to recentLimit recent terms.
func New(recentLimit int) *Controller {
	return &Controller{
		results: NewResults(),
		ledger:  NewLedger(recentLimit),
	}
}

// SubmitSearch starts a new search for term and returns the request for its
// first page. Empty or whitespace-only terms are rejected without any change.
func (c *Controller) SubmitSearch(term string) (Request, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return Request{}, &ValidationError{Term: term}
	}

	c.gen++
	c.queryID = uuid.NewString()
	c.results.Reset(trimmed)
	c.ledger.Record(term)
	c.sort = SortState{}
	c.err = nil
	c.state = Loading

	return c.issue(0), nil
}

// SelectRecent re-runs a term from the recent list.
func (c *Controller) SelectRecent(term string) (Request, error) {
	return c.SubmitSearch(term)
}

// LoadMore requests the next page. It is a no-op unless the session is Loaded
// and more pages exist.
func (c *Controller) LoadMore() (Request, bool) {
	if c.state != Loaded || !c.results.HasMore() {
		return Request{}, false
	}
	c.state = LoadingMore
	return c.issue(c.results.LastPage() + 1), true
}

func (c *Controller) issue(page int) Request {
	req := Request{
		Query:   Query{Term: c.results.Term(), Page: page},
		Gen:     c.gen,
		QueryID: c.queryID,
	}
	c.pending = req
	c.inFlight = true
	return req
}

// Complete reports the outcome of req. A response for anything other than the
// outstanding request returns ErrStaleResponse and changes nothing. A fetch
// error moves the session to Error and clears the results; it is absorbed
// into state rather than returned.
func (c *Controller) Complete(req Request, page story.Page, fetchErr error) error {
	if !c.inFlight || req != c.pending {
		return ErrStaleResponse
	}
	c.inFlight = false

	if fetchErr != nil {
		c.err = fetchErr
		c.results.Clear()
		c.state = Error
		return nil
	}

	page.Term = req.Term
	page.Number = req.Page
	if err := c.results.Append(page); err != nil {
		return err
	}
	c.state = Loaded
	return nil
}

// Dismiss hides the story with id from the current results. Only valid while
// results are shown (Loaded or LoadingMore).
func (c *Controller) Dismiss(id string) bool {
	if c.state != Loaded && c.state != LoadingMore {
		return false
	}
	return c.results.Dismiss(id)
}

// Reorder applies a sort column click. Only valid in Loaded.
func (c *Controller) Reorder(key story.SortKey) bool {
	if c.state != Loaded {
		return false
	}
	c.sort = c.sort.Toggle(key)
	return true
}

// State returns the current phase.
func (c *Controller) State() State { return c.state }

// Busy reports whether a fetch is outstanding.
func (c *Controller) Busy() bool { return c.inFlight }

// Pending returns the outstanding request, if any.
func (c *Controller) Pending() (Request, bool) { return c.pending, c.inFlight }

// Sort returns the current sort state.
func (c *Controller) Sort() SortState { return c.sort }

// Len returns the number of stories currently shown, without projecting them.
func (c *Controller) Len() int { return c.results.Len() }

// QueryID returns the correlation id of the active search.
func (c *Controller) QueryID() string { return c.queryID }

// Recent returns the recent terms, most recent first.
func (c *Controller) Recent() []string { return c.ledger.Terms() }

// Snapshot derives the current view.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:    c.state,
		Term:     c.results.Term(),
		QueryID:  c.queryID,
		LastPage: c.results.LastPage(),
		Sort:     c.sort,
		Recent:   c.ledger.Terms(),
		Err:      c.err,
	}
	if c.state == Error {
		s.Banner = ErrorBanner
		return s
	}
	s.Stories = Project(c.results.Stories(), c.sort)
	s.HasMore = c.results.HasMore() && (c.state == Loaded || c.state == LoadingMore)
	return s
}

// Run performs req against repo and feeds the outcome back into c.
// Intended for synchronous drivers such as the CLI.
func Run(ctx context.Context, c *Controller, repo story.Repository, req Request) error {
	page, err := req.Do(ctx, repo)
	return c.Complete(req, page, err)
}
