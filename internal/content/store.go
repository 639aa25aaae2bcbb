// Package content reads and writes the filesystem tier of the store: chapter
// bodies, chapter notes, individual note files and the JSON snapshot backups
// kept alongside them. Paths are supplied by the caller; this package never
// derives them.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports a read of a file that does not exist. All other
// filesystem failures surface as wrapped I/O errors.
var ErrNotFound = errors.New("content not found")

type Store struct{}

func New() *Store {
	return &Store{}
}

// WriteText overwrites the whole file at path, creating parent directories as
// needed.
func (s *Store) WriteText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text file: %w", err)
	}
	return nil
}

// ReadText returns the file's contents, or ErrNotFound if it does not exist.
func (s *Store) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}

// WriteSnapshot serializes record as an indented JSON backup copy at path,
// creating parent directories as needed.
func (s *Store) WriteSnapshot(path string, record any) error {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot rehydrates a record from the JSON backup at path. It returns
// ErrNotFound when the snapshot is absent; a present-but-undecodable snapshot
// is a plain error so callers can decide whether to overwrite it.
func (s *Store) ReadSnapshot(path string, record any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, record); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}

// MkdirAll creates dir and any missing parents.
func (s *Store) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return nil
}

// Exists reports whether a regular file is present at path.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the file at path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// RemoveAll deletes path and everything beneath it.
func (s *Store) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove tree: %w", err)
	}
	return nil
}

// Rename moves a file from oldPath to newPath.
func (s *Store) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// ReconcileNotes lists the note files under categoryDir and returns their
// names with extensions stripped, sorted for stable output. The directory is
// created if absent. The filesystem is the source of truth for the manifest:
// whatever the caller tracked before this call is replaced by exactly what is
// on disk. The category's own .json snapshot and any subdirectories are not
// notes and are skipped.
func (s *Store) ReconcileNotes(categoryDir string) ([]string, error) {
	entries, err := os.ReadDir(categoryDir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(categoryDir, 0o755); err != nil {
			return nil, fmt.Errorf("create category dir: %w", err)
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list category dir: %w", err)
	}

	notes := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		notes = append(notes, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(notes)
	return notes, nil
}
