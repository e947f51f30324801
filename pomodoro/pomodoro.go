// Package pomodoro implements the three-mode work timer.
package pomodoro

import (
	"fmt"
	"time"
)

// Mode is a timer phase.
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// Modes lists the phases in the order the mode selector cycles through them.
var Modes = []Mode{ModeWork, ModeShortBreak, ModeLongBreak}

// Label is the human readable name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeShortBreak:
		return "short break"
	case ModeLongBreak:
		return "long break"
	default:
		return "work"
	}
}

// Durations configures how long each mode lasts.
type Durations struct {
	Work       time.Duration
	ShortBreak time.Duration
	LongBreak  time.Duration
}

// DefaultDurations are 25/5/15 minutes.
func DefaultDurations() Durations {
	return Durations{
		Work:       25 * time.Minute,
		ShortBreak: 5 * time.Minute,
		LongBreak:  15 * time.Minute,
	}
}

// For returns the length of mode m.
func (d Durations) For(m Mode) time.Duration {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

// Timer is a countdown that is advanced explicitly by Tick.
// The zero value is not usable; use New.
type Timer struct {
	durations Durations
	mode      Mode
	left      time.Duration
	running   bool
}

// New returns a stopped timer in work mode.
func New(d Durations) *Timer {
	t := &Timer{durations: d}
	t.SetMode(ModeWork)
	return t
}

func (t *Timer) Mode() Mode               { return t.mode }
func (t *Timer) Remaining() time.Duration { return t.left }
func (t *Timer) Running() bool            { return t.running }

// Start resumes the countdown. Starting a running timer is a no-op.
func (t *Timer) Start() {
	if t.left <= 0 {
		t.left = t.durations.For(t.mode)
	}
	t.running = true
}

// Pause stops the countdown and keeps the remaining time.
func (t *Timer) Pause() {
	t.running = false
}

// Reset pauses and restores the full length of the current mode.
func (t *Timer) Reset() {
	t.SetMode(t.mode)
}

// SetMode switches phase, pausing the timer and loading that phase's length.
func (t *Timer) SetMode(m Mode) {
	t.mode = m
	t.left = t.durations.For(m)
	t.running = false
}

// NextMode cycles the mode selector: work, short break, long break.
func (t *Timer) NextMode() Mode {
	for i, m := range Modes {
		if m == t.mode {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeWork
}

// Completion is reported when a countdown reaches zero.
type Completion struct {
	Finished Mode
	Next     Mode
	Message  string
}

// Tick advances a running timer by elapsed. When the countdown reaches zero
// the timer stops, switches to the follow-up mode and returns the completion.
func (t *Timer) Tick(elapsed time.Duration) (Completion, bool) {
	if !t.running {
		return Completion{}, false
	}
	t.left -= elapsed
	if t.left > 0 {
		return Completion{}, false
	}

	c := Completion{Finished: t.mode}
	if t.mode == ModeWork {
		c.Next = ModeShortBreak
		c.Message = "Time for a break!"
	} else {
		c.Next = ModeWork
		c.Message = "Break over, back to work!"
	}
	t.SetMode(c.Next)
	return c, true
}

// Display renders the remaining time as MM:SS.
func (t *Timer) Display() string {
	return Format(t.left)
}

// Format renders d as MM:SS, rounding partial seconds up so a countdown shows
// 00:00 only once it is done.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
