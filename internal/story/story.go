// Package story defines the Hacker News story model and the repository
// contract shared by the fetch client, the page cache and the session.
package story

import (
	"context"
	"errors"
)

// PageSize is the number of hits requested per page.
const PageSize = 20

// ErrFetchFailure marks every repository failure, whatever the cause.
var ErrFetchFailure = errors.New("fetch failure")

// Story is a single search hit. Values are never mutated after decoding.
type Story struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	NumComments int    `json:"num_comments"`
	Points      int    `json:"points"`
}

// Page is one page of results for a term.
type Page struct {
	Term    string  `json:"term"`
	Number  int     `json:"page"`
	Stories []Story `json:"hits"`
	NbPages int     `json:"nbPages"`
	NbHits  int     `json:"nbHits"`
}

// HasMore reports whether a page after this one exists.
// Without page-count metadata a full page is taken to mean "maybe more".
func (p Page) HasMore() bool {
	if p.NbPages > 0 {
		return p.Number+1 < p.NbPages
	}
	return len(p.Stories) == PageSize
}

// Repository fetches a single page of results for a term.
// Any returned error wraps ErrFetchFailure.
type Repository interface {
	FetchPage(ctx context.Context, term string, page int) (Page, error)
}

// RepositoryFunc adapts a function to Repository.
type RepositoryFunc func(ctx context.Context, term string, page int) (Page, error)

// FetchPage calls f.
func (f RepositoryFunc) FetchPage(ctx context.Context, term string, page int) (Page, error) {
	return f(ctx, term, page)
}

// SortKey names the field a result list is ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortTitle
	SortAuthor
	SortComments
	SortPoints
)

// String returns the display label used by column headers.
func (k SortKey) String() string {
	switch k {
	case SortTitle:
		return "Title"
	case SortAuthor:
		return "Author"
	case SortComments:
		return "Comments"
	case SortPoints:
		return "Points"
	default:
		return "None"
	}
}

// ParseSortKey maps a CLI or config name to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	switch s {
	case "", "none":
		return SortNone, true
	case "title":
		return SortTitle, true
	case "author":
		return SortAuthor, true
	case "comments", "num_comments":
		return SortComments, true
	case "points":
		return SortPoints, true
	default:
		return SortNone, false
	}
}
