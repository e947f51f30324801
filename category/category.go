// Package category derives the set of category labels in use.
package category

import (
	"slices"
	"strings"

	"taskdeck/model"
)

// Index returns the distinct non-empty categories of tasks, sorted
// case-insensitively with byte order breaking ties.
func Index(tasks []model.Task) []string {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]string, 0)
	for _, t := range tasks {
		c := strings.TrimSpace(t.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
