// Package achieve picks the toast shown for a completed-task count.
package achieve

import "fmt"

// Message returns the achievement text for n completed tasks, or "" when no
// toast should show. Milestones at 1, 5 and 10 have their own text and every
// other positive multiple of five gets the generic one; a count never yields
// more than one message.
func Message(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "First task completed! Great start! ⭐"
	case n == 5:
		return "You've completed 5 tasks! Keep up the momentum! ✨"
	case n == 10:
		return "Double digits! 10 tasks crushed! 🚀"
	case n%5 == 0:
		return fmt.Sprintf("Awesome! You've completed %d tasks! 🎉", n)
	default:
		return ""
	}
}

// Tracker remembers the last count it announced so that unrelated mutations
// (adding or deleting an open task) do not replay the same toast.
type Tracker struct {
	last int
}

// NewTracker starts a tracker at the completed count loaded from storage.
func NewTracker(completed int) *Tracker {
	return &Tracker{last: completed}
}

// Observe records the current completed count and returns the toast to show,
// if any. The second value is false when the count did not change.
func (t *Tracker) Observe(completed int) (string, bool) {
	if completed == t.last {
		return "", false
	}
	t.last = completed
	return Message(completed), true
}
