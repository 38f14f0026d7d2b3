package session

import (
	"cmp"
	"slices"

	"github.com/abelbrown/hackerstories/internal/story"
)

// Direction is the order applied to the sort key.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SortState is presentation-only ordering. The zero value means arrival order.
type SortState struct {
	Key story.SortKey
	Dir Direction
}

// Toggle applies a column click: the same key flips direction, any other key
// starts ascending.
func (s SortState) Toggle(key story.SortKey) SortState {
	if key == story.SortNone {
		return SortState{}
	}
	if key == s.Key {
		if s.Dir == Asc {
			return SortState{Key: key, Dir: Desc}
		}
		return SortState{Key: key, Dir: Asc}
	}
	return SortState{Key: key, Dir: Asc}
}

// Project returns stories ordered by s without touching the input slice.
// Sorting is stable in both directions, so equal keys keep arrival order.
func Project(stories []story.Story, s SortState) []story.Story {
	out := slices.Clone(stories)
	if s.Key == story.SortNone || len(out) < 2 {
		return out
	}
	compare := comparator(s.Key)
	if s.Dir == Desc {
		slices.SortStableFunc(out, func(a, b story.Story) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(key story.SortKey) func(a, b story.Story) int {
	switch key {
	case story.SortTitle:
		return func(a, b story.Story) int { return cmp.Compare(a.Title, b.Title) }
	case story.SortAuthor:
		return func(a, b story.Story) int { return cmp.Compare(a.Author, b.Author) }
	case story.SortComments:
		return func(a, b story.Story) int { return cmp.Compare(a.NumComments, b.NumComments) }
	case story.SortPoints:
		return func(a, b story.Story) int { return cmp.Compare(a.Points, b.Points) }
	default:
		return func(a, b story.Story) int { return 0 }
	}
}
