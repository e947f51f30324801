package store

import (
	"context"
	"errors"
)

// Slot names.
const (
	SlotTasks       = "tasks"
	SlotPreferences = "preferences"
)

// ErrEmptySlot is returned by Backend.Read when nothing has been stored yet.
var ErrEmptySlot = errors.New("slot is empty")

// Backend stores opaque serialized text under named slots.
type Backend interface {
	Read(ctx context.Context, slot string) ([]byte, error)
	Write(ctx context.Context, slot string, data []byte) error
	Close() error
}

// Recoverer is implemented by backends that keep older copies of a slot.
// Recover discards the current slot contents and restores the newest copy for
// which valid returns true; when no copy is valid the slot is reset to empty.
// The returned note describes what happened, for display to the user.
type Recoverer interface {
	Recover(ctx context.Context, slot string, valid func([]byte) bool) (data []byte, note string, err error)
}
