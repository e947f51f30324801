package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskdeck/category"
	"taskdeck/model"
	"taskdeck/view"
)

var (
	ErrInvalidTask     = errors.New("task text must not be empty")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrPersistence accompanies a mutation that was applied in memory but
	// could not be written to storage.
	ErrPersistence = errors.New("changes could not be saved")
)

// Persister is the durable side of the store.
type Persister interface {
	SaveTasks(ctx context.Context, tasks []model.Task) error
	SavePreferences(ctx context.Context, prefs model.Preferences) error
}

// Service owns the task list and the current view state.
// It is not safe for concurrent use; callers process one action at a time.
type Service struct {
	tasks      []model.Task
	categories []string
	prefs      model.Preferences

	query  string
	filter model.Filter

	persister Persister
	logger    zerolog.Logger
	newID     func() string

	// OnChange runs after every successful mutation.
	OnChange func()
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPreferences seeds the auxiliary preferences loaded from storage.
func WithPreferences(p model.Preferences) Option {
	return func(s *Service) { s.prefs = p }
}

// WithIDGenerator replaces the ref generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService creates a service over a copy of tasks. Tasks without a ref
// (data saved before refs existed) are assigned one; tasks with blank text
// are dropped.
func NewService(tasks []model.Task, persister Persister, opts ...Option) *Service {
	s := &Service{
		filter:    model.FilterAll,
		persister: persister,
		logger:    zerolog.Nop(),
		newID:     newID,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tasks = s.normalize(tasks)
	s.categories = category.Index(s.tasks)
	return s
}

// List returns all tasks in insertion order as a copy.
func (s *Service) List() []model.Task {
	return copyTasks(s.tasks)
}

// Get returns a task by ref.
func (s *Service) Get(ref string) (model.Task, error) {
	if i := s.indexOf(ref); i >= 0 {
		return copyTask(s.tasks[i]), nil
	}
	return model.Task{}, ErrTaskNotFound
}

// Categories returns the current category index.
func (s *Service) Categories() []string {
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

// CompletedCount returns how many tasks are completed.
func (s *Service) CompletedCount() int {
	n := 0
	for _, t := range s.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Add appends a new open task. Text and category are trimmed; an empty
// priority means medium.
func (s *Service) Add(ctx context.Context, text string, deadline *time.Time, priority model.Priority, cat string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrInvalidTask
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	task := model.Task{
		ID:        s.newID(),
		Text:      text,
		Completed: false,
		Deadline:  cloneTime(deadline),
		Priority:  priority,
		Category:  strings.TrimSpace(cat),
	}
	s.tasks = append(s.tasks, task)
	return copyTask(task), s.commit(ctx)
}

// TaskEdit lists field changes; nil fields are left alone. ClearDeadline
// removes the deadline and takes precedence over Deadline.
type TaskEdit struct {
	Text          *string
	Deadline      *time.Time
	ClearDeadline bool
	Priority      *model.Priority
	Category      *string
}

// Edit applies field changes to the task identified by ref.
func (s *Service) Edit(ctx context.Context, ref string, edit TaskEdit) (model.Task, error) {
	i := s.indexOf(ref)
	if i < 0 {
		s.logger.Debug().Str("ref", ref).Msg("edit: stale ref")
		return model.Task{}, ErrTaskNotFound
	}

	updated := s.tasks[i]
	if edit.Text != nil {
		text := strings.TrimSpace(*edit.Text)
		if text == "" {
			return model.Task{}, ErrInvalidTask
		}
		updated.Text = text
	}
	if edit.Priority != nil {
		p := *edit.Priority
		if p == "" {
			p = model.PriorityMedium
		}
		if !p.Valid() {
			return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, p)
		}
		updated.Priority = p
	}
	switch {
	case edit.ClearDeadline:
		updated.Deadline = nil
	case edit.Deadline != nil:
		updated.Deadline = cloneTime(edit.Deadline)
	}
	if edit.Category != nil {
		updated.Category = strings.TrimSpace(*edit.Category)
	}

	s.tasks[i] = updated
	return copyTask(updated), s.commit(ctx)
}

// ToggleCompleted flips the completed flag of the task identified by ref.
func (s *Service) ToggleCompleted(ctx context.Context, ref string) (model.Task, error) {
	i := s.indexOf(ref)
	if i < 0 {
		s.logger.Debug().Str("ref", ref).Msg("toggle: stale ref")
		return model.Task{}, ErrTaskNotFound
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return copyTask(s.tasks[i]), s.commit(ctx)
}

// Remove deletes the task identified by ref.
func (s *Service) Remove(ctx context.Context, ref string) error {
	i := s.indexOf(ref)
	if i < 0 {
		s.logger.Debug().Str("ref", ref).Msg("remove: stale ref")
		return ErrTaskNotFound
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return s.commit(ctx)
}

// SetFilter changes the status filter.
func (s *Service) SetFilter(filter model.Filter) error {
	if !filter.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
	s.filter = filter
	return nil
}

// Filter returns the current status filter.
func (s *Service) Filter() model.Filter { return s.filter }

// SetQuery changes the search text.
func (s *Service) SetQuery(query string) {
	s.query = query
}

// Query returns the current search text.
func (s *Service) Query() string { return s.query }

// Visible returns the tasks to display for the current search and filter.
func (s *Service) Visible(now time.Time) []model.Task {
	return view.Apply(copyTasks(s.tasks), s.query, s.filter, now)
}

// Progress summarizes completion over all tasks.
func (s *Service) Progress() view.Progress {
	return view.Summarize(s.tasks)
}

// DarkMode reports the dark-mode preference.
func (s *Service) DarkMode() bool { return s.prefs.DarkMode }

// ToggleDarkMode flips and persists the dark-mode preference. The new value
// is kept even when saving fails.
func (s *Service) ToggleDarkMode(ctx context.Context) (bool, error) {
	s.prefs.DarkMode = !s.prefs.DarkMode
	if s.persister == nil {
		return s.prefs.DarkMode, nil
	}
	if err := s.persister.SavePreferences(ctx, s.prefs); err != nil {
		s.logger.Warn().Err(err).Msg("save preferences failed")
		return s.prefs.DarkMode, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return s.prefs.DarkMode, nil
}

// commit runs the post-mutation steps: one full save, one index recompute.
func (s *Service) commit(ctx context.Context) error {
	var err error
	if s.persister != nil {
		if saveErr := s.persister.SaveTasks(ctx, copyTasks(s.tasks)); saveErr != nil {
			s.logger.Warn().Err(saveErr).Int("tasks", len(s.tasks)).Msg("save tasks failed")
			err = fmt.Errorf("%w: %v", ErrPersistence, saveErr)
		}
	}
	s.categories = category.Index(s.tasks)
	if s.OnChange != nil {
		s.OnChange()
	}
	return err
}

func (s *Service) indexOf(ref string) int {
	if ref == "" {
		return -1
	}
	for i := range s.tasks {
		if s.tasks[i].ID == ref {
			return i
		}
	}
	return -1
}

// normalize copies loaded tasks into a valid state: blank entries are
// dropped, refs are made unique and unknown priorities fall back to medium.
func (s *Service) normalize(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		t = copyTask(t)
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			s.logger.Warn().Int("index", i).Str("ref", t.ID).Msg("dropping stored task with empty text")
			continue
		}
		if _, dup := seen[t.ID]; t.ID == "" || dup {
			t.ID = s.newID()
		}
		seen[t.ID] = struct{}{}
		if !t.Priority.Valid() {
			t.Priority = model.PriorityMedium
		}
		t.Category = strings.TrimSpace(t.Category)
		out = append(out, t)
	}
	return out
}

func copyTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = copyTask(t)
	}
	return out
}

func copyTask(t model.Task) model.Task {
	t.Deadline = cloneTime(t.Deadline)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	c := *t
	return &c
}

func newID() string {
	return uuid.NewString()
}
