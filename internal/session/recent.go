package session

import (
	"strings"

	"golang.org/x/text/cases"
)

// MaxRecent is the largest number of recent terms a Ledger keeps.
const MaxRecent = 5

// Ledger is the bounded most-recent-first list of submitted terms.
// Terms are compared trimmed and case-folded but kept as typed.
type Ledger struct {
	terms []string
	limit int
	fold  cases.Caser
}

// NewLedger creates a ledger holding up to limit terms. Limits outside
// 1..MaxRecent fall back to MaxRecent.
func NewLedger(limit int) *Ledger {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}
	return &Ledger{limit: limit, fold: cases.Fold()}
}

// Record moves term to the front, dropping any equivalent entry and anything
// beyond the limit.
func (l *Ledger) Record(term string) {
	key := l.normalize(term)
	out := make([]string, 0, l.limit)
	out = append(out, term)
	for _, t := range l.terms {
		if len(out) == l.limit {
			break
		}
		if l.normalize(t) == key {
			continue
		}
		out = append(out, t)
	}
	l.terms = out
}

// Terms returns a copy of the ledger, most recent first.
func (l *Ledger) Terms() []string {
	out := make([]string, len(l.terms))
	copy(out, l.terms)
	return out
}

// Len returns the number of terms held.
func (l *Ledger) Len() int { return len(l.terms) }

// Same reports whether a and b are the same term for ledger purposes.
func (l *Ledger) Same(a, b string) bool {
	return l.normalize(a) == l.normalize(b)
}

func (l *Ledger) normalize(term string) string {
	return l.fold.String(strings.TrimSpace(term))
}
