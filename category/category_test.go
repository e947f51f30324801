package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskdeck/model"
)

func TestIndexDeduplicatesAndSorts(t *testing.T) {
	tasks := []model.Task{
		{Text: "a", Category: "work"},
		{Text: "b", Category: "Groceries"},
		{Text: "c", Category: ""},
		{Text: "d", Category: "work"},
		{Text: "e", Category: "  "},
		{Text: "f", Category: "errands"},
	}

	assert.Equal(t, []string{"errands", "Groceries", "work"}, Index(tasks))
}

func TestIndexEmpty(t *testing.T) {
	assert.Empty(t, Index(nil))
	assert.Empty(t, Index([]model.Task{{Text: "no category"}}))
}

func TestIndexIsDeterministic(t *testing.T) {
	forward := []model.Task{{Category: "b"}, {Category: "a"}, {Category: "B"}}
	backward := []model.Task{{Category: "B"}, {Category: "a"}, {Category: "b"}}

	assert.Equal(t, Index(forward), Index(backward))
	assert.Equal(t, []string{"a", "B", "b"}, Index(forward))
}
