// Package view computes the ordered subset of tasks to display.
//
// Everything here is pure: inputs are never mutated and the same inputs
// always produce the same output.
package view

import (
	"math"
	"slices"
	"strings"
	"time"

	"taskdeck/model"
)

// Apply filters tasks by search text and status filter, then sorts them for
// display. Search is a case-insensitive substring match against the task text
// or its category; whitespace in the search is significant. Unknown filters
// behave like model.FilterAll.
func Apply(tasks []model.Task, search string, filter model.Filter, now time.Time) []model.Task {
	q := strings.ToLower(search)

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !MatchesSearch(t, q) {
			continue
		}
		if !MatchesFilter(t, filter, now) {
			continue
		}
		out = append(out, t)
	}

	Sort(out, now)
	return out
}

// MatchesSearch reports whether the lowercased query q occurs in the task's
// text or category.
func MatchesSearch(t model.Task, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Text), q) {
		return true
	}
	return t.Category != "" && strings.Contains(strings.ToLower(t.Category), q)
}

// MatchesFilter applies the status filter predicate.
func MatchesFilter(t model.Task, filter model.Filter, now time.Time) bool {
	switch filter {
	case model.FilterActive:
		return !t.Completed
	case model.FilterDone:
		return t.Completed
	case model.FilterToday:
		return IsDueToday(t, now)
	case model.FilterOverdue:
		return IsOverdue(t, now)
	default:
		return true
	}
}

// IsOverdue reports an incomplete task whose deadline is strictly before now.
func IsOverdue(t model.Task, now time.Time) bool {
	return !t.Completed && t.HasDeadline() && t.Deadline.Before(now)
}

// IsDueToday reports an incomplete task whose deadline falls on now's
// calendar date, evaluated in now's location.
func IsDueToday(t model.Task, now time.Time) bool {
	if t.Completed || !t.HasDeadline() {
		return false
	}
	dy, dm, dd := t.Deadline.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return dy == ny && dm == nm && dd == nd
}

// Sort orders tasks in place: overdue first, then by priority rank, then tasks
// with deadlines (earliest first) before tasks without. Ties keep input order.
func Sort(tasks []model.Task, now time.Time) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		return compare(a, b, now)
	})
}

func compare(a, b model.Task, now time.Time) int {
	aOver, bOver := IsOverdue(a, now), IsOverdue(b, now)
	if aOver != bOver {
		if aOver {
			return -1
		}
		return 1
	}

	if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
		return ar - br
	}

	aHas, bHas := a.HasDeadline(), b.HasDeadline()
	switch {
	case aHas && bHas:
		return a.Deadline.Compare(*b.Deadline)
	case aHas:
		return -1
	case bHas:
		return 1
	}
	return 0
}

// Progress summarizes completion across a task set.
type Progress struct {
	Total   int
	Done    int
	Percent int
}

// Summarize counts completed tasks. Percent is rounded and 0 for no tasks.
func Summarize(tasks []model.Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Done) / float64(p.Total) * 100))
	}
	return p
}

// Ratio returns completion in [0, 1].
func (p Progress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}
