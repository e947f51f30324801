package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"taskdeck/app"
	"taskdeck/model"
)

var errBadDeadline = errors.New("use YYYY-MM-DD or YYYY-MM-DDTHH:MM")

// taskForm backs the add and edit dialogs. The huh fields write into the
// struct, so it must stay at a stable address while the form is open.
type taskForm struct {
	ref      string
	text     string
	deadline string
	priority model.Priority
	category string

	// shownDeadline is the prefilled deadline text. An unchanged field keeps
	// the stored deadline, which may carry seconds the field cannot show.
	shownDeadline string

	form *huh.Form
}

func newAddForm(categories []string, dark bool, width int) *taskForm {
	f := &taskForm{priority: model.PriorityMedium}
	f.build("New task", categories, dark, width)
	return f
}

func newEditForm(t model.Task, categories []string, dark bool, width int) *taskForm {
	f := &taskForm{
		ref:      t.ID,
		text:     t.Text,
		priority: t.Priority,
		category: t.Category,
	}
	if t.Deadline != nil {
		f.deadline = t.Deadline.In(time.Local).Format(model.DeadlineLayoutLocal)
		f.shownDeadline = f.deadline
	}
	f.build("Edit task", categories, dark, width)
	return f
}

func (f *taskForm) build(title string, categories []string, dark bool, width int) {
	theme := huh.ThemeBase()
	if dark {
		theme = huh.ThemeCharm()
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Placeholder("What needs to be done?").
				Validate(validateText).
				Value(&f.text),
			huh.NewInput().
				Title("Deadline").
				Description("Optional, YYYY-MM-DD or YYYY-MM-DDTHH:MM").
				Validate(validateDeadline).
				Value(&f.deadline),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("Low", model.PriorityLow),
				).
				Value(&f.priority),
			huh.NewInput().
				Title("Category").
				Description("Optional, tab completes").
				Suggestions(categories).
				Value(&f.category),
		),
	).WithTheme(theme).WithShowHelp(true)

	if width > 0 {
		f.form = f.form.WithWidth(width)
	}
}

func (f *taskForm) editing() bool { return f.ref != "" }

// deadlineValue parses the deadline field. An empty field means no deadline.
func (f *taskForm) deadlineValue() *time.Time {
	d, ok := model.ParseDeadline(f.deadline, time.Local)
	if !ok {
		return nil
	}
	return &d
}

func (f *taskForm) edit() app.TaskEdit {
	text := f.text
	prio := f.priority
	cat := f.category
	edit := app.TaskEdit{Text: &text, Priority: &prio, Category: &cat}
	if f.editing() && strings.TrimSpace(f.deadline) == f.shownDeadline {
		return edit
	}
	if d := f.deadlineValue(); d != nil {
		edit.Deadline = d
	} else {
		edit.ClearDeadline = true
	}
	return edit
}

func validateText(s string) error {
	if strings.TrimSpace(s) == "" {
		return app.ErrInvalidTask
	}
	return nil
}

func validateDeadline(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := model.ParseDeadline(s, time.Local); !ok {
		return errBadDeadline
	}
	return nil
}
