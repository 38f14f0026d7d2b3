// Package e2e drives the hackerstories binary in a pseudo-terminal against a
// local fixture search API.
package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// fixtureAPI is an Algolia-shaped search endpoint. Every term has two pages of
// 20 hits titled "<term> fixture <page>-<i>".
type fixtureAPI struct {
	*httptest.Server

	mu      sync.Mutex
	queries []string
}

func newFixtureAPI() *fixtureAPI {
	f := &fixtureAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fixtureAPI) serve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := q.Get("query")
	page, _ := strconv.Atoi(q.Get("page"))

	f.mu.Lock()
	f.queries = append(f.queries, fmt.Sprintf("%s#%d", term, page))
	f.mu.Unlock()

	if term == "fail" {
		http.Error(w, "fixture failure", http.StatusInternalServerError)
		return
	}

	hits := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		hits = append(hits, fmt.Sprintf(
			`{"objectID":"%s-%d-%d","title":"%s fixture %d-%d","author":"user%d","url":"https://example.com/%d","num_comments":%d,"points":%d}`,
			term, page, i, term, page, i, i, i, i*3, 100-i))
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"hits":[%s],"page":%d,"nbPages":2,"nbHits":40,"hitsPerPage":20}`, strings.Join(hits, ","), page)
}

// Queries returns the "<term>#<page>" requests seen so far.
func (f *fixtureAPI) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}
