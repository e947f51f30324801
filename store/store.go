// Package store persists tasks and preferences as serialized JSON slots.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"taskdeck/model"
)

// ErrCorrupt is returned when a slot holds data that cannot be decoded and
// could not be recovered.
var ErrCorrupt = errors.New("stored data is corrupt")

// Adapter serializes tasks and preferences into a Backend.
type Adapter struct {
	backend Backend
	logger  zerolog.Logger
}

// NewAdapter wraps backend.
func NewAdapter(backend Backend, logger zerolog.Logger) *Adapter {
	return &Adapter{backend: backend, logger: logger}
}

// Close closes the underlying backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// LoadTasks reads the task slot. An empty slot yields no tasks and no error.
// Corrupt data is handed to the backend for recovery when it supports it; the
// returned note then describes the recovery. On any error the returned slice
// is empty (never nil) so callers can continue as if nothing was stored.
func (a *Adapter) LoadTasks(ctx context.Context) ([]model.Task, string, error) {
	data, err := a.backend.Read(ctx, SlotTasks)
	if errors.Is(err, ErrEmptySlot) {
		return []model.Task{}, "", nil
	}
	if err != nil {
		return []model.Task{}, "", fmt.Errorf("read tasks: %w", err)
	}

	tasks, err := decodeTasks(data)
	if err == nil {
		return tasks, "", nil
	}
	if !isCorruptError(err) {
		return []model.Task{}, "", fmt.Errorf("decode tasks: %w", err)
	}

	rec, ok := a.backend.(Recoverer)
	if !ok {
		return []model.Task{}, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	a.logger.Warn().Err(err).Str("slot", SlotTasks).Msg("stored tasks are corrupt, recovering")
	recovered, note, recErr := rec.Recover(ctx, SlotTasks, func(b []byte) bool {
		_, err := decodeTasks(b)
		return err == nil
	})
	if recErr != nil {
		return []model.Task{}, "", fmt.Errorf("%w: recovery failed: %v", ErrCorrupt, recErr)
	}
	if len(recovered) == 0 {
		return []model.Task{}, note, nil
	}

	tasks, err = decodeTasks(recovered)
	if err != nil {
		return []model.Task{}, note, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tasks, note, nil
}

// SaveTasks replaces the task slot with the full sequence.
func (a *Adapter) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	data = append(data, '\n')
	if err := a.backend.Write(ctx, SlotTasks, data); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

// LoadPreferences reads the preferences slot. Missing or unreadable
// preferences yield the zero value; the error is returned for logging only.
func (a *Adapter) LoadPreferences(ctx context.Context) (model.Preferences, error) {
	data, err := a.backend.Read(ctx, SlotPreferences)
	if errors.Is(err, ErrEmptySlot) {
		return model.Preferences{}, nil
	}
	if err != nil {
		return model.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var prefs model.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return model.Preferences{}, fmt.Errorf("%w: preferences: %v", ErrCorrupt, err)
	}
	return prefs, nil
}

// SavePreferences replaces the preferences slot.
func (a *Adapter) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := a.backend.Write(ctx, SlotPreferences, data); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

func decodeTasks(data []byte) ([]model.Task, error) {
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func isCorruptError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
