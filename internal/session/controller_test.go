package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/abelbrown/hackerstories/internal/story"
)

// fakeRepo serves pages of 20 stories per term and records every call.
type fakeRepo struct {
	nbPages map[string]int
	fail    error
	calls   []Query
}

func (f *fakeRepo) FetchPage(ctx context.Context, term string, page int) (story.Page, error) {
	f.calls = append(f.calls, Query{Term: term, Page: page})
	if f.fail != nil {
		return story.Page{}, fmt.Errorf("fake: %w: %w", story.ErrFetchFailure, f.fail)
	}
	n := f.nbPages[term]
	if n == 0 {
		n = 10
	}
	return makePage(term, page, story.PageSize, n), nil
}

func mustSubmit(t *testing.T, c *Controller, term string) Request {
	t.Helper()
	req, err := c.SubmitSearch(term)
	if err != nil {
		t.Fatalf("SubmitSearch(%q): %v", term, err)
	}
	return req
}

func mustRun(t *testing.T, c *Controller, repo story.Repository, req Request) {
	t.Helper()
	if err := Run(context.Background(), c, repo, req); err != nil {
		t.Fatalf("Run(%+v): %v", req.Query, err)
	}
}

func TestNewControllerIsIdle(t *testing.T) {
	c := New(MaxRecent)
	snap := c.Snapshot()
	if snap.State != Idle {
		t.Errorf("State = %v, want idle", snap.State)
	}
	if len(snap.Stories) != 0 || snap.HasMore || snap.Banner != "" {
		t.Errorf("idle snapshot should be empty: %+v", snap)
	}
}

func TestSubmitSearchRejectsEmpty(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))
	before := c.Snapshot()

	for _, term := range []string{"", "   ", "\t\n"} {
		_, err := c.SubmitSearch(term)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("SubmitSearch(%q) err = %v, want ErrValidation", term, err)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Term != term {
			t.Errorf("SubmitSearch(%q) should return *ValidationError carrying the term", term)
		}
	}

	after := c.Snapshot()
	if after.State != before.State || len(after.Stories) != len(before.Stories) || len(after.Recent) != 1 {
		t.Errorf("rejected term changed state: before=%v/%d after=%v/%d recent=%v",
			before.State, len(before.Stories), after.State, len(after.Stories), after.Recent)
	}
	if len(repo.calls) != 1 {
		t.Errorf("rejected term must not reach the repository, calls=%v", repo.calls)
	}
}

func TestSubmitSearchTransitions(t *testing.T) {
	c := New(MaxRecent)
	req := mustSubmit(t, c, "  React ")

	if c.State() != Loading {
		t.Fatalf("State = %v, want loading", c.State())
	}
	if req.Term != "React" || req.Page != 0 {
		t.Errorf("request = %+v, want React page 0", req.Query)
	}
	if req.QueryID == "" {
		t.Error("request should carry a query id")
	}
	if !c.Busy() {
		t.Error("controller should be busy while a fetch is outstanding")
	}

	mustRun(t, c, &fakeRepo{}, req)
	snap := c.Snapshot()
	if snap.State != Loaded {
		t.Fatalf("State = %v, want loaded", snap.State)
	}
	if len(snap.Stories) != 20 {
		t.Errorf("stories = %d, want 20", len(snap.Stories))
	}
	if snap.Term != "React" {
		t.Errorf("Term = %q, want React", snap.Term)
	}
	if got := snap.Recent; len(got) != 1 || got[0] != "  React " {
		t.Errorf("Recent = %q, want the term as submitted", got)
	}
}

func TestSubmitSearchResetsSort(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))

	if !c.Reorder(story.SortPoints) {
		t.Fatal("Reorder should be accepted in Loaded")
	}
	if c.Sort().Key != story.SortPoints {
		t.Fatalf("Sort = %+v", c.Sort())
	}

	mustSubmit(t, c, "Cypress")
	if c.Sort() != (SortState{}) {
		t.Errorf("new search should reset sort, got %+v", c.Sort())
	}
}

func TestLoadMoreAppends(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))

	req, ok := c.LoadMore()
	if !ok {
		t.Fatal("LoadMore should be accepted with more pages")
	}
	if c.State() != LoadingMore {
		t.Errorf("State = %v, want loading_more", c.State())
	}
	if req.Page != 1 || req.Term != "React" {
		t.Errorf("request = %+v, want React page 1", req.Query)
	}

	// Stories stay visible while the next page loads.
	if n := len(c.Snapshot().Stories); n != 20 {
		t.Errorf("stories during LoadingMore = %d, want 20", n)
	}

	mustRun(t, c, repo, req)
	snap := c.Snapshot()
	if len(snap.Stories) != 40 {
		t.Fatalf("stories = %d, want 40", len(snap.Stories))
	}
	for _, s := range snap.Stories {
		if s.ObjectID[:6] != "React-" {
			t.Fatalf("story %s does not belong to React", s.ObjectID)
		}
	}
	if snap.LastPage != 1 {
		t.Errorf("LastPage = %d, want 1", snap.LastPage)
	}
}

func TestLoadMoreWithoutMoreIsNoop(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{nbPages: map[string]int{"Go": 1}}
	mustRun(t, c, repo, mustSubmit(t, c, "Go"))

	if c.Snapshot().HasMore {
		t.Fatal("single page result should not report HasMore")
	}
	before := len(c.Snapshot().Stories)
	if _, ok := c.LoadMore(); ok {
		t.Error("LoadMore should be rejected without more pages")
	}
	if c.State() != Loaded || len(c.Snapshot().Stories) != before {
		t.Error("rejected LoadMore changed state")
	}
}

func TestLoadMoreRejectedOutsideLoaded(t *testing.T) {
	c := New(MaxRecent)
	if _, ok := c.LoadMore(); ok {
		t.Error("LoadMore from Idle should be rejected")
	}
	mustSubmit(t, c, "React")
	if _, ok := c.LoadMore(); ok {
		t.Error("LoadMore from Loading should be rejected")
	}
}

func TestStaleResponseAfterNewTerm(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))

	reactMore, ok := c.LoadMore()
	if !ok {
		t.Fatal("LoadMore rejected")
	}

	// "Cypress" is submitted before React page 1 comes back.
	cypress := mustSubmit(t, c, "Cypress")
	mustRun(t, c, repo, cypress)

	latePage, _ := reactMore.Do(context.Background(), repo)
	err := c.Complete(reactMore, latePage, nil)
	if !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("late React page: err = %v, want ErrStaleResponse", err)
	}

	snap := c.Snapshot()
	if snap.Term != "Cypress" || len(snap.Stories) != 20 {
		t.Fatalf("Cypress results changed: term=%s len=%d", snap.Term, len(snap.Stories))
	}
	for _, s := range snap.Stories {
		if s.ObjectID[:8] != "Cypress-" {
			t.Fatalf("React story %s leaked into Cypress results", s.ObjectID)
		}
	}
}

func TestStaleResponseSameTermResubmitted(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	first := mustSubmit(t, c, "React")
	second := mustSubmit(t, c, "React")

	page, _ := first.Do(context.Background(), repo)
	if err := c.Complete(first, page, nil); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("response for superseded generation: err = %v, want ErrStaleResponse", err)
	}
	if c.State() != Loading {
		t.Errorf("stale response changed state to %v", c.State())
	}

	mustRun(t, c, repo, second)
	if c.State() != Loaded {
		t.Errorf("State = %v, want loaded", c.State())
	}
	if err := c.Complete(second, page, nil); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("duplicate completion should be stale, got %v", err)
	}
}

func TestFetchFailureMovesToError(t *testing.T) {
	causes := []error{
		errors.New("connection refused"),
		errors.New("status 500"),
		context.DeadlineExceeded,
	}

	for _, cause := range causes {
		t.Run(cause.Error(), func(t *testing.T) {
			c := New(MaxRecent)
			ok := &fakeRepo{}
			mustRun(t, c, ok, mustSubmit(t, c, "React"))

			req, _ := c.LoadMore()
			if err := Run(context.Background(), c, &fakeRepo{fail: cause}, req); err != nil {
				t.Fatalf("Run: %v", err)
			}

			snap := c.Snapshot()
			if snap.State != Error {
				t.Fatalf("State = %v, want error", snap.State)
			}
			if len(snap.Stories) != 0 {
				t.Errorf("error state should show no stories, got %d", len(snap.Stories))
			}
			if snap.Banner != "Something went wrong ..." {
				t.Errorf("Banner = %q", snap.Banner)
			}
			if !errors.Is(snap.Err, story.ErrFetchFailure) || !errors.Is(snap.Err, cause) {
				t.Errorf("Err = %v, want wrapped cause", snap.Err)
			}
			if snap.HasMore {
				t.Error("error state should not offer more")
			}
		})
	}
}

func TestRecoverFromError(t *testing.T) {
	c := New(MaxRecent)
	if err := Run(context.Background(), c, &fakeRepo{fail: errors.New("down")}, mustSubmit(t, c, "React")); err != nil {
		t.Fatal(err)
	}
	if c.State() != Error {
		t.Fatalf("State = %v, want error", c.State())
	}
	if _, ok := c.LoadMore(); ok {
		t.Error("LoadMore from Error should be rejected")
	}

	mustRun(t, c, &fakeRepo{}, mustSubmit(t, c, "React"))
	snap := c.Snapshot()
	if snap.State != Loaded || len(snap.Stories) != 20 || snap.Banner != "" || snap.Err != nil {
		t.Errorf("new search should recover: %+v", snap)
	}
}

func TestDismissThroughController(t *testing.T) {
	c := New(MaxRecent)
	if c.Dismiss("x") {
		t.Error("Dismiss in Idle should be rejected")
	}

	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))
	first := c.Snapshot().Stories[0].ObjectID

	if !c.Dismiss(first) {
		t.Fatal("Dismiss of shown story should succeed")
	}
	if c.Dismiss(first) {
		t.Error("second Dismiss should be a no-op")
	}
	if n := len(c.Snapshot().Stories); n != 19 {
		t.Errorf("stories = %d, want 19", n)
	}

	// Still allowed while the next page loads.
	req, _ := c.LoadMore()
	if !c.Dismiss(c.Snapshot().Stories[0].ObjectID) {
		t.Error("Dismiss during LoadingMore should succeed")
	}
	mustRun(t, c, repo, req)
	if n := len(c.Snapshot().Stories); n != 38 {
		t.Errorf("stories = %d, want 38", n)
	}
	if c.State() != Loaded {
		t.Errorf("Dismiss must not change state, got %v", c.State())
	}
}

func TestLenAndQueryIDMatchSnapshot(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	if c.Len() != 0 || c.QueryID() != "" {
		t.Fatalf("idle: Len = %d, QueryID = %q", c.Len(), c.QueryID())
	}

	req := mustSubmit(t, c, "React")
	if c.Len() != 0 || c.QueryID() != req.QueryID {
		t.Errorf("loading: Len = %d, QueryID = %q", c.Len(), c.QueryID())
	}
	mustRun(t, c, repo, req)
	c.Reorder(story.SortPoints)
	c.Dismiss("React-0-3")

	snap := c.Snapshot()
	if c.Len() != len(snap.Stories) || c.QueryID() != snap.QueryID {
		t.Errorf("Len = %d, QueryID = %q; snapshot has %d, %q", c.Len(), c.QueryID(), len(snap.Stories), snap.QueryID)
	}

	repo.fail = errors.New("boom")
	req = mustSubmit(t, c, "Cypress")
	mustRun(t, c, repo, req)
	if c.Len() != 0 {
		t.Errorf("Len in Error = %d, want 0", c.Len())
	}
}

func TestReorderOnlyInLoaded(t *testing.T) {
	c := New(MaxRecent)
	if c.Reorder(story.SortTitle) {
		t.Error("Reorder in Idle should be rejected")
	}
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))
	c.LoadMore()
	if c.Reorder(story.SortTitle) {
		t.Error("Reorder in LoadingMore should be rejected")
	}
}

func TestSortSurvivesLoadMore(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))
	c.Reorder(story.SortPoints)
	c.Reorder(story.SortPoints)

	req, _ := c.LoadMore()
	mustRun(t, c, repo, req)

	if c.Sort() != (SortState{Key: story.SortPoints, Dir: Desc}) {
		t.Errorf("sort after LoadMore = %+v", c.Sort())
	}
	stories := c.Snapshot().Stories
	for i := 1; i < len(stories); i++ {
		if stories[i-1].Points < stories[i].Points {
			t.Fatalf("snapshot not sorted by points desc at %d", i)
		}
	}
}

func TestSelectRecent(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	mustRun(t, c, repo, mustSubmit(t, c, "React"))
	mustRun(t, c, repo, mustSubmit(t, c, "Cypress"))

	req, err := c.SelectRecent("React")
	if err != nil {
		t.Fatal(err)
	}
	mustRun(t, c, repo, req)

	snap := c.Snapshot()
	if snap.Term != "React" || len(snap.Stories) != 20 {
		t.Errorf("SelectRecent should search React: %s/%d", snap.Term, len(snap.Stories))
	}
	if !equalIDs(snap.Recent, []string{"React", "Cypress"}) {
		t.Errorf("Recent = %v, want [React Cypress]", snap.Recent)
	}
}

func TestRecentAfterSevenSearches(t *testing.T) {
	c := New(MaxRecent)
	repo := &fakeRepo{}
	for _, term := range []string{"React", "A", "B", "C", "D", "E", "F"} {
		mustRun(t, c, repo, mustSubmit(t, c, term))
	}
	if got := c.Recent(); !equalIDs(got, []string{"F", "E", "D", "C", "B"}) {
		t.Errorf("Recent = %v", got)
	}
}

func TestRequestDoStampsPage(t *testing.T) {
	repo := story.RepositoryFunc(func(ctx context.Context, term string, page int) (story.Page, error) {
		return story.Page{Term: "something else", Number: 99}, nil
	})
	req := Request{Query: Query{Term: "Go", Page: 3}}
	p, err := req.Do(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if p.Term != "Go" || p.Number != 3 {
		t.Errorf("page = %s/%d, want Go/3", p.Term, p.Number)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Idle: "idle", Loading: "loading", Loaded: "loaded", LoadingMore: "loading_more", Error: "error", State(42): "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
