package tui

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"taskdeck/app"
)

// RenderPlain writes an uncolored snapshot of the current view, for when
// stdout is not a terminal.
func RenderPlain(w io.Writer, svc *app.Service, now time.Time) error {
	bw := bufio.NewWriter(w)

	prog := svc.Progress()
	fmt.Fprintf(bw, "taskdeck: %s, %d done (%d%%)\n", countLabel(prog.Total), prog.Done, prog.Percent)

	tasks := svc.Visible(now)
	if len(tasks) == 0 {
		if prog.Total == 0 {
			fmt.Fprintln(bw, "No tasks yet.")
		} else {
			fmt.Fprintf(bw, "No tasks for filter %q.\n", filterLabel(svc.Filter()))
		}
		return bw.Flush()
	}

	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		line := fmt.Sprintf("%s (%s) %s", check, t.Priority, t.Text)
		if t.Category != "" {
			line += " #" + t.Category
		}
		if due := deadlineLabel(t, now); due != "" {
			line += ", " + due
		}
		fmt.Fprintln(bw, line)
	}
	return bw.Flush()
}
