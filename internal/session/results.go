package session

import "github.com/abelbrown/hackerstories/internal/story"

// Results accumulates the pages of one term and applies dismissals.
// A new term replaces everything; pages of different terms never mix.
type Results struct {
	term     string
	stories  []story.Story
	lastPage int
	hasMore  bool
}

// NewResults returns an empty accumulator with no active term.
func NewResults() *Results {
	return &Results{lastPage: -1}
}

// Reset starts a fresh result set for term.
func (r *Results) Reset(term string) {
	r.term = term
	r.stories = nil
	r.lastPage = -1
	r.hasMore = true
}

// Append adds a page's stories after the existing ones, in arrival order.
// A page for any other term is stale and leaves the set untouched.
// Repeated IDs across pages are kept.
func (r *Results) Append(p story.Page) error {
	if p.Term != r.term {
		return ErrStaleResponse
	}
	r.stories = append(r.stories, p.Stories...)
	r.lastPage = p.Number
	r.hasMore = p.HasMore()
	return nil
}

// Dismiss removes every story with the given id. Absent ids are a no-op.
// Pagination state is unaffected.
func (r *Results) Dismiss(id string) bool {
	kept := r.stories[:0]
	removed := false
	for _, s := range r.stories {
		if s.ObjectID == id {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	if !removed {
		return false
	}
	// Clear the tail so dropped stories are not retained by the backing array.
	for i := len(kept); i < len(r.stories); i++ {
		r.stories[i] = story.Story{}
	}
	r.stories = kept
	return true
}

// Clear drops all stories but keeps the active term, so late pages for it are
// still recognised.
func (r *Results) Clear() {
	r.stories = nil
	r.hasMore = false
}

// Term returns the active term.
func (r *Results) Term() string { return r.term }

// Stories returns the accumulated stories in arrival order.
// The slice is shared; callers must not modify it.
func (r *Results) Stories() []story.Story { return r.stories }

// Len returns the number of accumulated stories.
func (r *Results) Len() int { return len(r.stories) }

// LastPage is the number of the last appended page, or -1.
func (r *Results) LastPage() int { return r.lastPage }

// HasMore reports whether another page can be requested.
func (r *Results) HasMore() bool { return r.hasMore }
