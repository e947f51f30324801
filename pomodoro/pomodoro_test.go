package pomodoro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsStoppedInWorkMode(t *testing.T) {
	tm := New(DefaultDurations())
	assert.Equal(t, ModeWork, tm.Mode())
	assert.False(t, tm.Running())
	assert.Equal(t, "25:00", tm.Display())
}

func TestTickOnlyAdvancesWhileRunning(t *testing.T) {
	tm := New(DefaultDurations())

	_, done := tm.Tick(time.Minute)
	assert.False(t, done)
	assert.Equal(t, 25*time.Minute, tm.Remaining())

	tm.Start()
	tm.Tick(time.Second)
	assert.Equal(t, "24:59", tm.Display())

	tm.Pause()
	tm.Tick(time.Minute)
	assert.Equal(t, "24:59", tm.Display())
}

func TestWorkCompletionSwitchesToShortBreak(t *testing.T) {
	tm := New(Durations{Work: 2 * time.Second, ShortBreak: time.Second, LongBreak: 3 * time.Second})
	tm.Start()

	_, done := tm.Tick(time.Second)
	require.False(t, done)

	c, done := tm.Tick(time.Second)
	require.True(t, done)
	assert.Equal(t, ModeWork, c.Finished)
	assert.Equal(t, ModeShortBreak, c.Next)
	assert.Equal(t, "Time for a break!", c.Message)
	assert.Equal(t, ModeShortBreak, tm.Mode())
	assert.False(t, tm.Running())
	assert.Equal(t, "00:01", tm.Display())
}

func TestBreakCompletionSwitchesToWork(t *testing.T) {
	tm := New(Durations{Work: time.Minute, ShortBreak: time.Second, LongBreak: time.Second})
	tm.SetMode(ModeLongBreak)
	tm.Start()

	c, done := tm.Tick(5 * time.Second)
	require.True(t, done)
	assert.Equal(t, ModeLongBreak, c.Finished)
	assert.Equal(t, ModeWork, c.Next)
	assert.Equal(t, "Break over, back to work!", c.Message)
	assert.Equal(t, "01:00", tm.Display())
}

func TestResetRestoresModeLength(t *testing.T) {
	tm := New(DefaultDurations())
	tm.SetMode(ModeShortBreak)
	tm.Start()
	tm.Tick(90 * time.Second)
	tm.Reset()

	assert.False(t, tm.Running())
	assert.Equal(t, "05:00", tm.Display())
}

func TestNextModeCycles(t *testing.T) {
	tm := New(DefaultDurations())
	assert.Equal(t, ModeShortBreak, tm.NextMode())
	tm.SetMode(ModeLongBreak)
	assert.Equal(t, ModeWork, tm.NextMode())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "00:00", Format(-time.Second))
	assert.Equal(t, "00:01", Format(300*time.Millisecond))
	assert.Equal(t, "15:00", Format(15*time.Minute))
	assert.Equal(t, "61:05", Format(61*time.Minute+5*time.Second))
}
