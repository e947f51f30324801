package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Filter represents which tasks should be shown.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterActive  Filter = "active"
	FilterDone    Filter = "done"
	FilterToday   Filter = "today"
	FilterOverdue Filter = "overdue"
)

// Filters lists every status filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterDone, FilterToday, FilterOverdue}

// Valid reports whether f is one of the known filters.
func (f Filter) Valid() bool {
	for _, known := range Filters {
		if f == known {
			return true
		}
	}
	return false
}

// Priority is a task priority label.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least important.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities for sorting: high=1, medium=2, low=3.
// Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ParsePriority normalizes free text into a Priority.
// Empty or unknown input yields medium and ok=false for unknown input.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, true
	}
	if !p.Valid() {
		return PriorityMedium, false
	}
	return p, true
}

// Task is an individual todo item.
type Task struct {
	ID        string     `json:"id,omitempty"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Priority  Priority   `json:"priority"`
	Category  string     `json:"category,omitempty"`
}

// HasDeadline reports whether the task carries a deadline.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil && !t.Deadline.IsZero()
}

// DeadlineLayoutLocal is the browser datetime-local form older data was saved in.
const DeadlineLayoutLocal = "2006-01-02T15:04"

// UnmarshalJSON applies load defaults: missing priority becomes medium and an
// empty or unparsable deadline means no deadline.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string          `json:"id"`
		Text      string          `json:"text"`
		Completed bool            `json:"completed"`
		Deadline  json.RawMessage `json:"deadline"`
		Priority  string          `json:"priority"`
		Category  string          `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	priority, _ := ParsePriority(raw.Priority)
	*t = Task{
		ID:        raw.ID,
		Text:      raw.Text,
		Completed: raw.Completed,
		Deadline:  decodeDeadline(raw.Deadline),
		Priority:  priority,
		Category:  strings.TrimSpace(raw.Category),
	}
	return nil
}

func decodeDeadline(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	d, ok := ParseDeadline(s, time.Local)
	if !ok {
		return nil
	}
	return &d
}

// ParseDeadline accepts RFC 3339 timestamps plus the short local forms
// "2006-01-02T15:04", "2006-01-02 15:04" and "2006-01-02" (midnight).
// Short forms are interpreted in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return d, true
	}
	for _, layout := range []string{DeadlineLayoutLocal, "2006-01-02 15:04", "2006-01-02"} {
		if d, err := time.ParseInLocation(layout, s, loc); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Preferences holds auxiliary UI settings persisted in their own slot.
type Preferences struct {
	DarkMode bool `json:"darkMode"`
}
