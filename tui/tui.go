package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog"

	"taskdeck/achieve"
	"taskdeck/app"
	"taskdeck/model"
	"taskdeck/pomodoro"
	"taskdeck/quote"
)

type uiMode int

const (
	modeNormal uiMode = iota
	modeSearch
	modeForm
	modeConfirmDelete
)

const defaultToastTimeout = 5 * time.Second

type (
	tickMsg         struct{ seq int }
	toastExpiredMsg struct{ seq int }
	quoteMsg        struct {
		seq    int
		result quote.Result
	}
)

// Options configures the interactive model.
type Options struct {
	// Quotes fetches the header quote; nil disables it.
	Quotes        *quote.Client
	Durations     pomodoro.Durations
	ToastTimeout  time.Duration
	StartupStatus string
	StartupErr    bool
	// Bell receives a BEL when a pomodoro phase ends; nil keeps quiet.
	Bell   io.Writer
	Now    func() time.Time
	Logger zerolog.Logger
}

type Model struct {
	ctx    context.Context
	svc    *app.Service
	logger zerolog.Logger
	now    func() time.Time

	keys     keyMap
	help     help.Model
	search   textinput.Model
	progress progress.Model
	form     *taskForm

	mode        uiMode
	cursor      int
	selectedRef string

	confirmRef  string
	confirmName string

	timer   *pomodoro.Timer
	tickSeq int

	quotes      *quote.Client
	quote       quote.Result
	quoteSeq    int
	quoteCancel context.CancelFunc
	quoteBusy   bool

	tracker      *achieve.Tracker
	toast        string
	toastSeq     int
	toastPending bool
	toastTimeout time.Duration

	bell io.Writer

	showHelp  bool
	status    string
	statusErr bool

	width  int
	height int
}

// NewModel builds the interactive model over svc. The model takes over the
// service OnChange hook.
func NewModel(ctx context.Context, svc *app.Service, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	durations := opts.Durations
	if durations.Work <= 0 || durations.ShortBreak <= 0 || durations.LongBreak <= 0 {
		durations = pomodoro.DefaultDurations()
	}
	toastTimeout := opts.ToastTimeout
	if toastTimeout <= 0 {
		toastTimeout = defaultToastTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	status := strings.TrimSpace(opts.StartupStatus)
	if status == "" {
		status = "Ready"
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search text or category"
	search.CharLimit = 200

	m := &Model{
		ctx:          ctx,
		svc:          svc,
		logger:       opts.Logger,
		now:          now,
		keys:         defaultKeyMap(),
		help:         help.New(),
		search:       search,
		progress:     progress.New(progress.WithoutPercentage()),
		mode:         modeNormal,
		timer:        pomodoro.New(durations),
		quotes:       opts.Quotes,
		tracker:      achieve.NewTracker(svc.CompletedCount()),
		toastTimeout: toastTimeout,
		bell:         opts.Bell,
		status:       status,
		statusErr:    opts.StartupErr,
	}
	svc.OnChange = m.onStoreChange
	m.ensureSelection()
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.fetchQuote()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.mode == modeForm {
			cmds = append(cmds, m.updateFormMode(msg))
		}
	case tickMsg:
		cmds = append(cmds, m.handleTick(msg))
	case quoteMsg:
		m.handleQuote(msg)
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			cmds = append(cmds, m.updateSearchMode(msg))
		case modeForm:
			cmds = append(cmds, m.updateFormMode(msg))
		case modeConfirmDelete:
			m.updateConfirmMode(msg)
		default:
			cmds = append(cmds, m.updateNormalMode(msg))
		}
	default:
		switch m.mode {
		case modeForm:
			cmds = append(cmds, m.updateFormMode(msg))
		case modeSearch:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.takeToastCmd())
	return m, tea.Batch(cmds...)
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelQuote()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Clear):
		if m.showHelp {
			m.showHelp = false
			m.help.ShowAll = false
			break
		}
		if m.svc.Query() != "" {
			m.svc.SetQuery("")
			m.search.SetValue("")
			m.setStatus("Search cleared", false)
		}
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Add):
		cmd = m.openAddForm()
	case key.Matches(msg, m.keys.Edit):
		cmd = m.openEditForm()
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.keys.Delete):
		m.startDeleteConfirm()
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.svc.Query())
		m.search.CursorEnd()
		cmd = m.search.Focus()
		m.setStatus("Live search: type to filter, enter keeps, esc clears", false)
	case key.Matches(msg, m.keys.Filter):
		m.cycleFilter()
	case key.Matches(msg, m.keys.PickFilter):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(model.Filters) {
			m.setFilter(model.Filters[idx])
		}
	case key.Matches(msg, m.keys.TimerToggle):
		cmd = m.toggleTimer()
	case key.Matches(msg, m.keys.TimerReset):
		m.timer.Reset()
		m.tickSeq++
		m.setStatus("Timer reset", false)
	case key.Matches(msg, m.keys.TimerMode):
		m.timer.SetMode(m.timer.NextMode())
		m.tickSeq++
		m.setStatus("Timer: "+m.timer.Mode().Label(), false)
	case key.Matches(msg, m.keys.DarkMode):
		m.toggleDarkMode()
	case key.Matches(msg, m.keys.Quote):
		cmd = m.fetchQuote()
	}

	m.ensureSelection()
	return cmd
}

func (m *Model) updateSearchMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.svc.SetQuery("")
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeNormal
		m.resetCursor()
		m.setStatus("Search cleared", false)
		return nil
	case "enter":
		m.search.Blur()
		m.mode = modeNormal
		if m.svc.Query() == "" {
			m.setStatus("Search cleared", false)
		} else {
			m.setStatus(fmt.Sprintf("Search: %q", m.svc.Query()), false)
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.svc.SetQuery(m.search.Value())
	m.resetCursor()
	return cmd
}

func (m *Model) updateFormMode(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		m.mode = modeNormal
		return nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		m.setStatus("Cancelled", false)
		return nil
	}

	updated, cmd := m.form.form.Update(msg)
	if f, ok := updated.(*huh.Form); ok {
		m.form.form = f
	}

	switch m.form.form.State {
	case huh.StateCompleted:
		return m.submitForm()
	case huh.StateAborted:
		m.closeForm()
		m.setStatus("Cancelled", false)
		return nil
	}
	return cmd
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.confirmDelete()
	case "n", "esc", "enter", "ctrl+c":
		m.confirmRef = ""
		m.confirmName = ""
		m.mode = modeNormal
		m.setStatus("Delete cancelled", false)
	}
}

func (m *Model) openAddForm() tea.Cmd {
	m.form = newAddForm(m.svc.Categories(), m.svc.DarkMode(), m.formWidth())
	m.mode = modeForm
	return m.form.form.Init()
}

func (m *Model) openEditForm() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return nil
	}
	m.form = newEditForm(task, m.svc.Categories(), m.svc.DarkMode(), m.formWidth())
	m.mode = modeForm
	return m.form.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.mode = modeNormal
}

func (m *Model) submitForm() tea.Cmd {
	f := m.form
	m.closeForm()

	if f.editing() {
		task, err := m.svc.Edit(m.ctx, f.ref, f.edit())
		if err != nil && !errors.Is(err, app.ErrPersistence) {
			m.reportError("Could not update task", err)
			return nil
		}
		m.selectedRef = task.ID
		m.ensureSelection()
		m.persisted("Task updated", err)
		return nil
	}

	task, err := m.svc.Add(m.ctx, f.text, f.deadlineValue(), f.priority, f.category)
	if err != nil && !errors.Is(err, app.ErrPersistence) {
		m.reportError("Could not add task", err)
		return nil
	}
	m.selectedRef = task.ID
	m.ensureSelection()
	m.persisted("Task added", err)
	return m.fetchQuote()
}

func (m *Model) toggleSelected() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	updated, err := m.svc.ToggleCompleted(m.ctx, task.ID)
	if err != nil && !errors.Is(err, app.ErrPersistence) {
		m.reportError("Could not update task", err)
		return
	}
	if updated.Completed {
		m.persisted("Task completed", err)
	} else {
		m.persisted("Task reopened", err)
	}
}

func (m *Model) startDeleteConfirm() {
	task, ok := m.selectedTask()
	if !ok {
		m.setStatus("No task selected", true)
		return
	}
	m.confirmRef = task.ID
	m.confirmName = task.Text
	m.mode = modeConfirmDelete
}

func (m *Model) confirmDelete() {
	ref := m.confirmRef
	m.confirmRef = ""
	m.confirmName = ""
	m.mode = modeNormal

	err := m.svc.Remove(m.ctx, ref)
	if err != nil && !errors.Is(err, app.ErrPersistence) {
		m.reportError("Could not delete task", err)
		return
	}
	m.ensureSelection()
	m.persisted("Task deleted", err)
}

func (m *Model) cycleFilter() {
	current := m.svc.Filter()
	next := model.FilterAll
	for i, f := range model.Filters {
		if f == current {
			next = model.Filters[(i+1)%len(model.Filters)]
			break
		}
	}
	m.setFilter(next)
}

func (m *Model) setFilter(f model.Filter) {
	if err := m.svc.SetFilter(f); err != nil {
		m.reportError("Could not change filter", err)
		return
	}
	m.resetCursor()
	m.setStatus("Filter: "+filterLabel(f), false)
}

func (m *Model) toggleDarkMode() {
	on, err := m.svc.ToggleDarkMode(m.ctx)
	label := "Light mode"
	if on {
		label = "Dark mode"
	}
	m.persisted(label, err)
}

func (m *Model) toggleTimer() tea.Cmd {
	if m.timer.Running() {
		m.timer.Pause()
		m.tickSeq++
		m.setStatus("Timer paused", false)
		return nil
	}
	m.timer.Start()
	m.setStatus(m.timer.Mode().Label()+" started", false)
	return m.scheduleTick()
}

func (m *Model) scheduleTick() tea.Cmd {
	m.tickSeq++
	seq := m.tickSeq
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.seq != m.tickSeq || !m.timer.Running() {
		return nil
	}
	done, finished := m.timer.Tick(time.Second)
	if !finished {
		return m.scheduleTick()
	}
	m.logger.Debug().Str("finished", string(done.Finished)).Str("next", string(done.Next)).Msg("pomodoro phase complete")
	m.setStatus(done.Message, false)
	return m.ringBell()
}

func (m *Model) ringBell() tea.Cmd {
	w := m.bell
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		_, _ = io.WriteString(w, "\a")
		return nil
	}
}

// fetchQuote starts a quote request, cancelling any request still in flight.
func (m *Model) fetchQuote() tea.Cmd {
	if m.quotes == nil {
		return nil
	}
	m.cancelQuote()

	ctx, cancel := context.WithCancel(m.ctx)
	m.quoteCancel = cancel
	m.quoteSeq++
	m.quoteBusy = true
	seq := m.quoteSeq
	client := m.quotes

	return func() tea.Msg {
		return quoteMsg{seq: seq, result: client.Fetch(ctx)}
	}
}

func (m *Model) handleQuote(msg quoteMsg) {
	if msg.seq != m.quoteSeq {
		return
	}
	m.cancelQuote()
	m.quote = msg.result
}

func (m *Model) cancelQuote() {
	if m.quoteCancel != nil {
		m.quoteCancel()
		m.quoteCancel = nil
	}
	m.quoteBusy = false
}

// onStoreChange runs after every store mutation.
func (m *Model) onStoreChange() {
	text, changed := m.tracker.Observe(m.svc.CompletedCount())
	if !changed {
		return
	}
	m.toastSeq++
	m.toast = text
	m.toastPending = text != ""
}

func (m *Model) takeToastCmd() tea.Cmd {
	if !m.toastPending {
		return nil
	}
	m.toastPending = false
	seq := m.toastSeq
	return tea.Tick(m.toastTimeout, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m *Model) persisted(success string, err error) {
	if err != nil {
		m.setStatus("Change applied, but not saved: "+err.Error(), true)
		return
	}
	m.setStatus(success, false)
}

func (m *Model) reportError(prefix string, err error) {
	switch {
	case errors.Is(err, app.ErrTaskNotFound):
		m.setStatus("That task no longer exists", true)
		m.selectedRef = ""
		m.ensureSelection()
	default:
		m.setStatus(prefix+": "+err.Error(), true)
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) visibleTasks() []model.Task {
	return m.svc.Visible(m.now())
}

// ensureSelection keeps the cursor on the selected ref when it is still
// visible and otherwise clamps it into range.
func (m *Model) ensureSelection() {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		m.cursor = 0
		m.selectedRef = ""
		return
	}
	if m.selectedRef != "" {
		for i, t := range tasks {
			if t.ID == m.selectedRef {
				m.cursor = i
				return
			}
		}
	}
	m.cursor = clamp(m.cursor, 0, len(tasks)-1)
	m.selectedRef = tasks[m.cursor].ID
}

func (m *Model) resetCursor() {
	m.cursor = 0
	m.selectedRef = ""
	m.ensureSelection()
}

func (m *Model) moveCursor(delta int) {
	tasks := m.visibleTasks()
	if len(tasks) == 0 {
		return
	}
	m.ensureSelection()
	m.cursor = clamp(m.cursor+delta, 0, len(tasks)-1)
	m.selectedRef = tasks[m.cursor].ID
}

func (m *Model) selectedTask() (model.Task, bool) {
	m.ensureSelection()
	if m.selectedRef == "" {
		return model.Task{}, false
	}
	t, err := m.svc.Get(m.selectedRef)
	if err != nil {
		return model.Task{}, false
	}
	return t, true
}

func (m *Model) formWidth() int {
	w := m.viewportWidth() - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		return 0
	}
	return w
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
