package otel

import "context"

type queryIDKey struct{}

// WithQueryID tags ctx so components below the session (fetch, cache) can
// correlate their events with the search that caused them.
func WithQueryID(ctx context.Context, qid string) context.Context {
	return context.WithValue(ctx, queryIDKey{}, qid)
}

// QueryID returns the id set by WithQueryID, or "".
func QueryID(ctx context.Context) string {
	qid, _ := ctx.Value(queryIDKey{}).(string)
	return qid
}
