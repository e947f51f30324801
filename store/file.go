package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	defaultRotatingBackups = 10
	// Fixed width so lexical order matches creation order.
	rotatingStampLayout = "20060102-150405.000000000"
)

var errNoValidBackup = errors.New("no valid backup found")

// FileBackend keeps each slot in <dir>/<slot>.json. Writes are atomic and
// keep a latest backup (.bak) plus a rotating timestamped backup set.
type FileBackend struct {
	dir     string
	backups int
}

var (
	_ Backend   = (*FileBackend)(nil)
	_ Recoverer = (*FileBackend)(nil)
)

// NewFileBackend stores slots under dir, keeping up to backups rotating
// backups per slot (0 uses the default of 10).
func NewFileBackend(dir string, backups int) *FileBackend {
	if backups <= 0 {
		backups = defaultRotatingBackups
	}
	return &FileBackend{dir: dir, backups: backups}
}

// Path returns the file holding slot.
func (b *FileBackend) Path(slot string) string {
	return filepath.Join(b.dir, slot+".json")
}

func (b *FileBackend) Read(_ context.Context, slot string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(slot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrEmptySlot
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptySlot
	}
	return data, nil
}

// Write replaces the slot using a temporary file and atomic rename, after
// copying the previous contents to the backup set.
func (b *FileBackend) Write(_ context.Context, slot string, data []byte) error {
	path := b.Path(slot)
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}

	if err := b.backup(path); err != nil {
		return err
	}

	return writeFileAtomic(b.dir, path, data)
}

func (b *FileBackend) Close() error { return nil }

// Recover moves the corrupt slot file aside and restores the newest valid
// backup, or resets the slot when there is none.
func (b *FileBackend) Recover(ctx context.Context, slot string, valid func([]byte) bool) ([]byte, string, error) {
	path := b.Path(slot)

	moved, err := quarantine(path)
	if err != nil {
		return nil, "", fmt.Errorf("move corrupt file: %w", err)
	}
	withMoved := func(note string) string {
		if moved == "" {
			return note
		}
		return fmt.Sprintf("%s (bad file moved to %s)", note, filepath.Base(moved))
	}

	data, from, err := b.latestValidBackup(path, valid)
	switch {
	case errors.Is(err, errNoValidBackup):
		return nil, withMoved(slot + " was corrupt with no valid backup; starting empty"), nil
	case err != nil:
		return nil, "", fmt.Errorf("inspect backups: %w", err)
	}

	if err := writeFileAtomic(b.dir, path, data); err != nil {
		return nil, "", fmt.Errorf("restore backup: %w", err)
	}
	return data, withMoved(fmt.Sprintf("recovered %s from %s", slot, filepath.Base(from))), nil
}

// backup copies the current slot file to <file>.bak and to a new rotating
// <file>.bak.<timestamp>, then prunes the rotating set.
func (b *FileBackend) backup(path string) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	}

	stamp := time.Now().UTC().Format(rotatingStampLayout)
	for _, dst := range []string{path + ".bak", path + ".bak." + stamp} {
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(dst), err)
		}
	}
	return b.prune(path)
}

func (b *FileBackend) prune(path string) error {
	files, err := rotatingBackups(path)
	if err != nil {
		return err
	}
	for ; len(files) > b.backups; files = files[1:] {
		if err := os.Remove(files[0]); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (b *FileBackend) latestValidBackup(path string, valid func([]byte) bool) ([]byte, string, error) {
	rotating, err := rotatingBackups(path)
	if err != nil {
		return nil, "", err
	}

	for _, f := range byNewest(append([]string{path + ".bak"}, rotating...)) {
		data, err := os.ReadFile(f.path)
		if err != nil || (valid != nil && !valid(data)) {
			continue
		}
		return data, f.path, nil
	}
	return nil, "", errNoValidBackup
}

// rotatingBackups lists the timestamped backups of path, oldest first.
func rotatingBackups(path string) ([]string, error) {
	files, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

type backupFile struct {
	path    string
	modTime time.Time
}

// byNewest drops missing files and orders the rest newest first.
func byNewest(paths []string) []backupFile {
	files := make([]backupFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		files = append(files, backupFile{path: p, modTime: info.ModTime()})
	}
	slices.SortStableFunc(files, func(a, b backupFile) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return strings.Compare(b.path, a.path)
	})
	return files
}

// writeFileAtomic writes data to a temp file in dir, syncs it and renames it
// over path. The temp file never outlives the call.
func writeFileAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// quarantine renames path to <name>.corrupt-<timestamp><ext> and returns
// the new path. A missing file is not an error and yields "".
func quarantine(path string) (string, error) {
	ext := filepath.Ext(path)
	dst := fmt.Sprintf("%s.corrupt-%s%s", strings.TrimSuffix(path, ext), time.Now().UTC().Format("20060102-150405"), ext)
	err := os.Rename(path, dst)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", nil
	case err != nil:
		return "", err
	}
	return dst, nil
}
