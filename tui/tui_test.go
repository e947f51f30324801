package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/achieve"
	"taskdeck/app"
	"taskdeck/model"
	"taskdeck/pomodoro"
	"taskdeck/quote"
)

var testNow = time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)

type fakePersister struct {
	taskSaves int
	prefSaves int
	err       error
}

func (p *fakePersister) SaveTasks(context.Context, []model.Task) error {
	p.taskSaves++
	return p.err
}

func (p *fakePersister) SavePreferences(context.Context, model.Preferences) error {
	p.prefSaves++
	return p.err
}

func newTestModel(t *testing.T, tasks []model.Task, opts ...func(*Options)) (*Model, *fakePersister) {
	t.Helper()
	n := 0
	p := &fakePersister{}
	svc := app.NewService(tasks, p, app.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("ref-%d", n)
	}))

	o := Options{Now: func() time.Time { return testNow }, Logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	m := NewModel(context.Background(), svc, o)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, p
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = keyRunes(k)
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

// runCmd executes cmd and any batched children. Only use it on commands
// that do not wait on timers.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func screen(m *Model) string {
	return ansi.Strip(m.View())
}

func sampleTasks() []model.Task {
	past := testNow.Add(-2 * time.Hour)
	later := testNow.Add(3 * time.Hour)
	return []model.Task{
		{ID: "milk", Text: "Buy milk", Priority: model.PriorityLow, Category: "Home"},
		{ID: "rent", Text: "Pay rent", Priority: model.PriorityLow, Deadline: &past},
		{ID: "call", Text: "Call mom", Priority: model.PriorityHigh, Deadline: &later, Category: "Family"},
	}
}

func TestViewShowsEmptyState(t *testing.T) {
	m, _ := newTestModel(t, nil)

	out := screen(m)
	assert.Contains(t, out, "taskdeck")
	assert.Contains(t, out, "No tasks yet")
	assert.Contains(t, out, "0 tasks")
	assert.Contains(t, out, "25:00")
}

func TestViewListsTasksInDisplayOrder(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())

	out := screen(m)
	rent := strings.Index(out, "Pay rent")
	call := strings.Index(out, "Call mom")
	milk := strings.Index(out, "Buy milk")
	require.True(t, rent >= 0 && call >= 0 && milk >= 0, out)
	assert.Less(t, rent, call)
	assert.Less(t, call, milk)

	assert.Contains(t, out, "overdue today 08:00")
	assert.Contains(t, out, "#Family")
	assert.Contains(t, out, "# Home")
}

func TestToggleKeyCompletesSelectedTask(t *testing.T) {
	m, p := newTestModel(t, sampleTasks())

	press(m, "x")

	task, err := m.svc.Get("rent")
	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, "Task completed", m.status)
	assert.Equal(t, 1, p.taskSaves)

	press(m, " ")
	task, _ = m.svc.Get("rent")
	assert.False(t, task.Completed)
}

func TestCursorFollowsTaskAfterResort(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())
	press(m, "j", "j")
	require.Equal(t, "milk", m.selectedRef)

	high := model.PriorityHigh
	past := testNow.Add(-time.Hour)
	_, err := m.svc.Edit(context.Background(), "milk", app.TaskEdit{Priority: &high, Deadline: &past})
	require.NoError(t, err)
	require.Equal(t, "milk", m.svc.Visible(testNow)[0].ID)

	press(m, "x")

	milk, _ := m.svc.Get("milk")
	call, _ := m.svc.Get("call")
	assert.True(t, milk.Completed)
	assert.False(t, call.Completed)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())

	press(m, "d")
	assert.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, screen(m), `Delete task "Pay rent"?`)

	press(m, "n")
	assert.Equal(t, modeNormal, m.mode)
	assert.Len(t, m.svc.List(), 3)

	press(m, "d", "y")
	assert.Len(t, m.svc.List(), 2)
	_, err := m.svc.Get("rent")
	assert.ErrorIs(t, err, app.ErrTaskNotFound)
	assert.Equal(t, "Task deleted", m.status)
	assert.NotEmpty(t, m.selectedRef)
}

func TestSearchFiltersLive(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())

	press(m, "/")
	require.Equal(t, modeSearch, m.mode)
	press(m, "f", "a", "m")

	assert.Equal(t, "fam", m.svc.Query())
	visible := m.svc.Visible(testNow)
	require.Len(t, visible, 1)
	assert.Equal(t, "call", visible[0].ID)
	assert.Equal(t, "call", m.selectedRef)

	press(m, "enter")
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, "fam", m.svc.Query())

	press(m, "esc")
	assert.Empty(t, m.svc.Query())
	assert.Len(t, m.svc.Visible(testNow), 3)
}

func TestFilterKeys(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())

	press(m, "5")
	assert.Equal(t, model.FilterOverdue, m.svc.Filter())
	assert.Equal(t, "rent", m.selectedRef)

	press(m, "f")
	assert.Equal(t, model.FilterAll, m.svc.Filter())

	press(m, "f", "f")
	assert.Equal(t, model.FilterDone, m.svc.Filter())
	assert.Contains(t, screen(m), "No tasks for this filter")
	assert.Empty(t, m.selectedRef)
}

func TestAchievementToast(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())

	cmd := press(m, "x")
	assert.NotNil(t, cmd)
	assert.Equal(t, achieve.Message(1), m.toast)
	assert.Contains(t, screen(m), "First task completed!")

	m.Update(toastExpiredMsg{seq: m.toastSeq - 1})
	assert.NotEmpty(t, m.toast)
	m.Update(toastExpiredMsg{seq: m.toastSeq})
	assert.Empty(t, m.toast)

	press(m, "x")
	assert.Empty(t, m.toast)
}

func TestAchievementSkipsUnrelatedMutations(t *testing.T) {
	m, _ := newTestModel(t, nil)

	_, err := m.svc.Add(context.Background(), "one", nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, m.toast)
	assert.False(t, m.toastPending)
}

func TestPomodoroCountdown(t *testing.T) {
	var bell bytes.Buffer
	m, _ := newTestModel(t, nil, func(o *Options) {
		o.Durations = pomodoro.Durations{Work: 2 * time.Second, ShortBreak: time.Minute, LongBreak: time.Hour}
		o.Bell = &bell
	})

	cmd := press(m, "t")
	require.NotNil(t, cmd)
	require.True(t, m.timer.Running())

	stale := m.tickSeq - 1
	m.Update(tickMsg{seq: stale})
	assert.Equal(t, 2*time.Second, m.timer.Remaining())

	m.Update(tickMsg{seq: m.tickSeq})
	assert.Equal(t, time.Second, m.timer.Remaining())

	_, cmd = m.Update(tickMsg{seq: m.tickSeq})
	runCmd(cmd)

	assert.False(t, m.timer.Running())
	assert.Equal(t, pomodoro.ModeShortBreak, m.timer.Mode())
	assert.Equal(t, "Time for a break!", m.status)
	assert.Equal(t, "\a", bell.String())
}

func TestPomodoroPauseResetAndMode(t *testing.T) {
	m, _ := newTestModel(t, nil)

	press(m, "t")
	seq := m.tickSeq
	press(m, "t")
	assert.False(t, m.timer.Running())

	m.Update(tickMsg{seq: seq})
	assert.Equal(t, 25*time.Minute, m.timer.Remaining())

	press(m, "m")
	assert.Equal(t, pomodoro.ModeShortBreak, m.timer.Mode())
	assert.Contains(t, screen(m), "05:00")

	press(m, "m", "m")
	assert.Equal(t, pomodoro.ModeWork, m.timer.Mode())

	press(m, "r")
	assert.Equal(t, 25*time.Minute, m.timer.Remaining())
}

func TestDarkModeToggle(t *testing.T) {
	m, p := newTestModel(t, nil)

	press(m, "D")
	assert.True(t, m.svc.DarkMode())
	assert.Equal(t, 1, p.prefSaves)
	assert.Contains(t, screen(m), "dark")
	assert.Equal(t, "Dark mode", m.status)
}

func TestPersistenceFailureShowsStatus(t *testing.T) {
	m, p := newTestModel(t, sampleTasks())
	p.err = errors.New("disk full")

	press(m, "x")

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "disk full")
	task, _ := m.svc.Get("rent")
	assert.True(t, task.Completed)
}

func TestAddFormSubmit(t *testing.T) {
	m, p := newTestModel(t, sampleTasks())

	press(m, "a")
	require.Equal(t, modeForm, m.mode)
	require.NotNil(t, m.form)
	assert.False(t, m.form.editing())

	m.form.text = "  Water plants "
	m.form.deadline = "2026-02-20"
	m.form.priority = model.PriorityHigh
	m.form.category = "Home"
	m.submitForm()

	assert.Equal(t, modeNormal, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Task added", m.status)
	assert.Equal(t, 1, p.taskSaves)

	task, err := m.svc.Get(m.selectedRef)
	require.NoError(t, err)
	assert.Equal(t, "Water plants", task.Text)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, 20, task.Deadline.Day())
}

func TestAddFormEscCancels(t *testing.T) {
	m, p := newTestModel(t, nil)

	press(m, "a", "esc")

	assert.Equal(t, modeNormal, m.mode)
	assert.Nil(t, m.form)
	assert.Equal(t, "Cancelled", m.status)
	assert.Zero(t, p.taskSaves)
}

func TestEditFormPrefillsAndClearsDeadline(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks())
	press(m, "j")
	require.Equal(t, "call", m.selectedRef)

	press(m, "e")
	require.NotNil(t, m.form)
	assert.True(t, m.form.editing())
	assert.Equal(t, "Call mom", m.form.text)
	assert.Equal(t, model.PriorityHigh, m.form.priority)
	assert.NotEmpty(t, m.form.deadline)

	m.form.text = "Call dad"
	m.form.deadline = ""
	m.submitForm()

	task, err := m.svc.Get("call")
	require.NoError(t, err)
	assert.Equal(t, "Call dad", task.Text)
	assert.Nil(t, task.Deadline)
	assert.Equal(t, "Family", task.Category)
	assert.Equal(t, "Task updated", m.status)
}

func TestEditFormKeepsUntouchedDeadline(t *testing.T) {
	due := time.Date(2026, 2, 19, 10, 30, 45, 0, time.Local)
	task := model.Task{ID: "t1", Text: "Submit report", Priority: model.PriorityLow, Deadline: &due}

	f := newEditForm(task, nil, false, 0)
	f.text = "Submit final report"
	edit := f.edit()
	assert.Nil(t, edit.Deadline)
	assert.False(t, edit.ClearDeadline)

	f.deadline = "2026-02-20T09:00"
	edit = f.edit()
	require.NotNil(t, edit.Deadline)
	assert.True(t, edit.Deadline.Equal(time.Date(2026, 2, 20, 9, 0, 0, 0, time.Local)))

	f.deadline = ""
	edit = f.edit()
	assert.Nil(t, edit.Deadline)
	assert.True(t, edit.ClearDeadline)
}

func TestFormValidators(t *testing.T) {
	assert.ErrorIs(t, validateText("   "), app.ErrInvalidTask)
	assert.NoError(t, validateText("ok"))
	assert.NoError(t, validateDeadline(""))
	assert.NoError(t, validateDeadline("2026-02-19T09:15"))
	assert.ErrorIs(t, validateDeadline("next week"), errBadDeadline)
}

func TestQuoteFetchedOnInit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":"Stay the course","author":"Someone"}`))
	}))
	t.Cleanup(srv.Close)

	client := quote.New(quote.Config{URL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	m, _ := newTestModel(t, nil, func(o *Options) { o.Quotes = client })

	for _, msg := range runCmd(m.Init()) {
		m.Update(msg)
	}

	assert.Equal(t, "Stay the course", m.quote.Text)
	assert.Contains(t, screen(m), "Stay the course")
}

func TestStaleQuoteIsIgnored(t *testing.T) {
	client := quote.New(quote.Config{URL: "http://127.0.0.1:0"}, zerolog.Nop())
	m, _ := newTestModel(t, nil, func(o *Options) { o.Quotes = client })

	m.fetchQuote()
	first := m.quoteSeq
	m.fetchQuote()

	m.Update(quoteMsg{seq: first, result: quote.Result{Text: "old"}})
	assert.Empty(t, m.quote.Text)

	m.Update(quoteMsg{seq: m.quoteSeq, result: quote.Result{Text: "new"}})
	assert.Equal(t, "new", m.quote.Text)
	assert.Nil(t, m.quoteCancel)
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, nil)

	press(m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, screen(m), "dark mode")

	press(m, "esc")
	assert.False(t, m.showHelp)
}

func TestQuitCancelsQuote(t *testing.T) {
	client := quote.New(quote.Config{URL: "http://127.0.0.1:0"}, zerolog.Nop())
	m, _ := newTestModel(t, nil, func(o *Options) { o.Quotes = client })
	m.fetchQuote()
	require.NotNil(t, m.quoteCancel)

	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Nil(t, m.quoteCancel)
}

func TestRenderPlain(t *testing.T) {
	svc := app.NewService(sampleTasks(), nil)
	var buf bytes.Buffer

	require.NoError(t, RenderPlain(&buf, svc, testNow))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "taskdeck: 3 tasks, 0 done (0%)", lines[0])
	assert.Equal(t, "[ ] (low) Pay rent, overdue today 08:00", lines[1])
	assert.Equal(t, "[ ] (high) Call mom #Family, due today 13:00", lines[2])
	assert.Equal(t, "[ ] (low) Buy milk #Home", lines[3])
}

func TestRenderPlainEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPlain(&buf, app.NewService(nil, nil), testNow))
	assert.Equal(t, "taskdeck: 0 tasks, 0 done (0%)\nNo tasks yet.\n", buf.String())
}
