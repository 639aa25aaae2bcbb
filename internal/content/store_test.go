package content

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteReadTextRoundTrip(t *testing.T) {
	s := New()
	path := filepath.Join(t.TempDir(), "deep", "nested", "chapter_one.txt")

	body := "Once upon a time.\nIt was a dark and stormy night.\n"
	if err := s.WriteText(path, body); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	got, err := s.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if got != body {
		t.Fatalf("round trip mismatch: got %q, want %q", got, body)
	}
}

func TestWriteTextOverwrites(t *testing.T) {
	s := New()
	path := filepath.Join(t.TempDir(), "body.txt")

	if err := s.WriteText(path, "first draft, much longer than the second"); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if err := s.WriteText(path, "final"); err != nil {
		t.Fatalf("WriteText overwrite failed: %v", err)
	}

	got, err := s.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
	if got != "final" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestReadTextNotFound(t *testing.T) {
	s := New()
	_, err := s.ReadText(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	type record struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		Notes []string `json:"notes"`
	}

	s := New()
	path := filepath.Join(t.TempDir(), "character_sheets.json")

	in := record{ID: "cat_1", Name: "Character Sheets", Notes: []string{"Harry", "Ron"}}
	if err := s.WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	var out record
	if err := s.ReadSnapshot(path, &out); err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("snapshot round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	s := New()
	var out map[string]any
	err := s.ReadSnapshot(filepath.Join(t.TempDir(), "absent.json"), &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadSnapshotCorrupt(t *testing.T) {
	s := New()
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	var out map[string]any
	err := s.ReadSnapshot(path, &out)
	if err == nil {
		t.Fatal("expected decode error for corrupt snapshot")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("corrupt snapshot must not report ErrNotFound")
	}
}

func TestReconcileNotesCreatesDir(t *testing.T) {
	s := New()
	dir := filepath.Join(t.TempDir(), "notes", "worldbuilding")

	notes, err := s.ReconcileNotes(dir)
	if err != nil {
		t.Fatalf("ReconcileNotes failed: %v", err)
	}
	if len(notes) != 0 {
		t.Fatalf("expected empty manifest, got %v", notes)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected category dir to be created: %v", err)
	}
}

func TestReconcileNotesReflectsDisk(t *testing.T) {
	s := New()
	dir := t.TempDir()

	// Seed files directly, bypassing any tracked state.
	for _, name := range []string{"Hermione.txt", "Harry.txt", "Ron.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("seed note: %v", err)
		}
	}
	// The category snapshot and subdirectories are not notes.
	if err := os.WriteFile(filepath.Join(dir, "characters.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "drafts"), 0o755); err != nil {
		t.Fatalf("seed subdir: %v", err)
	}

	notes, err := s.ReconcileNotes(dir)
	if err != nil {
		t.Fatalf("ReconcileNotes failed: %v", err)
	}
	want := []string{"Harry", "Hermione", "Ron"}
	if !reflect.DeepEqual(notes, want) {
		t.Fatalf("manifest = %v, want %v", notes, want)
	}

	// Remove one file behind the store's back; the manifest follows the disk.
	if err := os.Remove(filepath.Join(dir, "Ron.txt")); err != nil {
		t.Fatalf("remove note: %v", err)
	}
	notes, err = s.ReconcileNotes(dir)
	if err != nil {
		t.Fatalf("ReconcileNotes after removal failed: %v", err)
	}
	want = []string{"Harry", "Hermione"}
	if !reflect.DeepEqual(notes, want) {
		t.Fatalf("manifest after removal = %v, want %v", notes, want)
	}
}

func TestRemoveMissingFileIsNoError(t *testing.T) {
	s := New()
	if err := s.Remove(filepath.Join(t.TempDir(), "gone.txt")); err != nil {
		t.Fatalf("Remove of missing file should succeed, got %v", err)
	}
}
