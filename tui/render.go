package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"taskdeck/model"
	"taskdeck/view"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	pal := paletteFor(m.svc.DarkMode())
	viewW := m.viewportWidth()

	title := lipgloss.NewStyle().Bold(true).Foreground(pal.Title).Render("taskdeck")
	summary := "filter: " + filterLabel(m.svc.Filter())
	if q := m.svc.Query(); q != "" {
		summary += " • search: \"" + q + "\""
	}
	if m.svc.DarkMode() {
		summary += " • dark"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Left, title, pal.fg(pal.Muted).Render("  "+summary))

	parts := []string{header}
	if line := m.renderQuote(pal, viewW); line != "" {
		parts = append(parts, line)
	}
	if m.toast != "" {
		parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(pal.Toast).Render("★ "+m.toast))
	}

	const paneGap = 1
	outerPaneW := viewW
	innerPaneW := outerPaneW - 2
	if innerPaneW < 20 {
		innerPaneW = outerPaneW
	}
	panelH := m.height - len(parts) - 4
	if panelH < 8 {
		panelH = 8
	}
	innerPaneH := panelH - 2
	if innerPaneH < 6 {
		innerPaneH = 6
	}

	leftW, rightW := m.paneWidths(innerPaneW, paneGap)
	split := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderSidebar(pal, leftW, innerPaneH),
		pal.fg(pal.Frame).Render("│"),
		m.renderTasksPanel(pal, rightW, innerPaneH),
	)

	frameColor := pal.Frame
	if m.mode == modeNormal {
		frameColor = pal.FrameActive
	}
	panes := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(outerPaneW - 2).
		Height(panelH).
		Render(split)

	switch {
	case m.mode == modeForm && m.form != nil:
		panes = lipgloss.Place(viewW, panelH, lipgloss.Center, lipgloss.Center, m.form.form.View())
	case m.showHelp:
		panes = lipgloss.Place(viewW, panelH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(pal))
	}

	statusStyle := pal.fg(pal.OK)
	if m.statusErr {
		statusStyle = pal.fg(pal.Error)
	}
	rightHint := "? help"
	if m.showHelp {
		rightHint = "esc/? close help"
	}

	parts = append(parts, panes, m.renderFooter(statusStyle, pal.fg(pal.Muted), rightHint))
	if prompt := m.renderPrompt(pal, viewW); prompt != "" {
		parts = append(parts, prompt)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderQuote(pal palette, width int) string {
	if m.quotes == nil {
		return ""
	}
	text := m.quote.Text
	if text == "" {
		if !m.quoteBusy {
			return ""
		}
		text = "fetching a quote..."
	}
	if m.quote.Author != "" {
		text = fmt.Sprintf("“%s” - %s", text, m.quote.Author)
	}
	return lipgloss.NewStyle().Italic(true).Foreground(pal.Muted).Render(truncateRunes(text, width))
}

func (m *Model) renderPrompt(pal palette, width int) string {
	style := lipgloss.NewStyle().Foreground(pal.Prompt).Width(width)
	switch m.mode {
	case modeSearch:
		return style.Render(m.search.View())
	case modeConfirmDelete:
		return style.Render(fmt.Sprintf("Delete task %q? [y/N]", truncateRunes(m.confirmName, 40)))
	}
	if m.showHelp || m.mode == modeForm {
		return ""
	}
	return m.help.View(m.keys)
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// One spare column keeps the right border from wrapping in some terminals.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

// paneWidths splits total between the sidebar (left) and the task list.
func (m *Model) paneWidths(total, gap int) (int, int) {
	if total <= 0 {
		return 22, 30
	}
	if gap < 0 {
		gap = 0
	}

	minLeft := 20
	minRight := 30
	if total < minLeft+minRight+gap {
		left := total / 3
		if left < 12 {
			left = 12
		}
		right := total - left - gap
		if right < 12 {
			right = 12
			left = total - right - gap
			if left < 10 {
				left = 10
			}
		}
		return left, right
	}

	left := total / 4
	if left < 24 {
		left = 24
	}
	if left > 34 {
		left = 34
	}
	right := total - left - gap
	if right < minRight {
		right = minRight
		left = total - right - gap
	}
	if left < minLeft {
		left = minLeft
		right = total - left - gap
	}
	return left, right
}

func (m *Model) renderFooter(statusStyle, hintStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(m.status)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}

	leftW := utf8.RuneCountInString(left)
	rightW := utf8.RuneCountInString(right)
	width := m.viewportWidth()

	if leftW+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
		}
		left = truncateRunes(left, maxLeft)
		leftW = utf8.RuneCountInString(left)
	}

	padding := width - leftW - rightW
	if padding < 1 {
		padding = 1
	}
	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + hintStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func (m *Model) renderHelpOverlay(pal palette) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(pal.Title).Render("Keys")
	body := m.help.View(m.keys)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.Muted).
		Padding(0, 1).
		Render(title + "\n\n" + body)
}

func (m *Model) renderSidebar(pal palette, width, height int) string {
	section := lipgloss.NewStyle().Bold(true).Foreground(pal.Title)
	muted := pal.fg(pal.Muted)

	prog := m.svc.Progress()
	m.progress.Width = width - 2
	m.progress.FullColor = string(pal.OK)
	m.progress.EmptyColor = string(pal.Frame)

	lines := []string{
		section.Render("Progress"),
		m.progress.ViewAs(prog.Ratio()),
		muted.Render(fmt.Sprintf("%s • %d%% done", countLabel(prog.Total), prog.Percent)),
		"",
		section.Render("Pomodoro"),
	}

	state := "paused"
	if m.timer.Running() {
		state = "running"
	}
	clock := lipgloss.NewStyle().Bold(true).Foreground(pal.Text).Render(m.timer.Display())
	lines = append(lines,
		clock+" "+muted.Render(m.timer.Mode().Label()),
		muted.Render(state+" • t start/pause"),
		"",
		section.Render("Categories"),
	)

	cats := m.svc.Categories()
	if len(cats) == 0 {
		lines = append(lines, muted.Render("none yet"))
	}
	catStyle := pal.fg(pal.Category)
	for _, c := range cats {
		lines = append(lines, catStyle.Render("# "+truncateRunes(c, width-3)))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTasksPanel(pal palette, width, height int) string {
	now := m.now()
	tasks := m.visibleTasks()
	muted := pal.fg(pal.Muted)

	title := lipgloss.NewStyle().Bold(true).Foreground(pal.Title).
		Render(fmt.Sprintf("Tasks (%d)", len(tasks)))
	lines := make([]string, 0, len(tasks)+2)
	lines = append(lines, title)

	if len(tasks) == 0 {
		switch {
		case len(m.svc.List()) == 0:
			lines = append(lines, muted.Render("No tasks yet. Press 'a' to add one."))
		case m.svc.Query() != "":
			lines = append(lines, muted.Render("No task matches the current search and filter."))
		default:
			lines = append(lines, muted.Render("No tasks for this filter (press 'f')."))
		}
	}

	// Keep the cursor row on screen when the list is taller than the pane.
	rows := height - 1
	start := 0
	if rows > 0 && m.cursor >= rows {
		start = m.cursor - rows + 1
	}

	for i := start; i < len(tasks); i++ {
		if rows > 0 && i-start >= rows {
			break
		}
		lines = append(lines, m.renderTaskLine(pal, tasks[i], tasks[i].ID == m.selectedRef, width, now))
	}

	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderTaskLine(pal palette, t model.Task, selected bool, width int, now time.Time) string {
	cursor := " "
	if selected {
		cursor = "▸"
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	textStyle := pal.fg(pal.Text)
	if t.Completed {
		textStyle = textStyle.Faint(true).Strikethrough(true)
	}
	prefixStyle := lipgloss.NewStyle()
	if selected {
		prefixStyle = prefixStyle.Bold(true).Foreground(pal.Selected)
		textStyle = textStyle.Bold(true).Foreground(pal.Selected)
	}

	suffix := ""
	suffixW := 0
	if t.Category != "" {
		tag := " #" + t.Category
		suffix += pal.fg(pal.Category).Render(tag)
		suffixW += utf8.RuneCountInString(tag)
	}
	if due := deadlineLabel(t, now); due != "" {
		color := pal.Muted
		switch {
		case view.IsOverdue(t, now):
			color = pal.Overdue
		case !t.Completed && view.IsDueToday(t, now):
			color = pal.Today
		}
		tag := " " + due
		suffix += pal.fg(color).Render(tag)
		suffixW += utf8.RuneCountInString(tag)
	}

	// cursor, check and priority dot take 8 columns.
	textW := width - 8 - suffixW
	if textW < 8 {
		textW = 8
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		prefixStyle.Render(cursor+" "+check+" "),
		priorityIndicator(pal, t.Priority)+" ",
		textStyle.Render(truncateRunes(t.Text, textW)),
		suffix,
	)
}

func priorityIndicator(pal palette, p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return pal.fg(pal.High).Render("●")
	case model.PriorityLow:
		return pal.fg(pal.Low).Render("●")
	default:
		return pal.fg(pal.Medium).Render("●")
	}
}

// deadlineLabel describes a deadline relative to now, e.g. "overdue Feb 18"
// or "today 17:00".
func deadlineLabel(t model.Task, now time.Time) string {
	if !t.HasDeadline() {
		return ""
	}
	d := t.Deadline.In(now.Location())

	var when string
	switch {
	case view.IsDueToday(t, now):
		when = "today"
	case d.Year() != now.Year():
		when = d.Format("Jan 2 2006")
	default:
		when = d.Format("Jan 2")
	}
	if d.Hour() != 0 || d.Minute() != 0 {
		when += " " + d.Format("15:04")
	}

	if view.IsOverdue(t, now) {
		return "overdue " + when
	}
	return "due " + when
}

func filterLabel(f model.Filter) string {
	switch f {
	case model.FilterActive:
		return "active"
	case model.FilterDone:
		return "completed"
	case model.FilterToday:
		return "due today"
	case model.FilterOverdue:
		return "overdue"
	default:
		return "all"
	}
}

func countLabel(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
