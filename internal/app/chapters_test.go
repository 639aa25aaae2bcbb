package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"draftbook/api/internal/store"
)

func newTestWork(t *testing.T, service *Service) store.Work {
	t.Helper()
	account := registerTestAccount(t, service, "alice")
	work, err := service.CreateWork(context.Background(), account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	return work
}

func TestCreateChapterWritesThreeFiles(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	chapter, err := service.CreateChapter(ctx, work, "Chapter One", 1)
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	chapterDir := filepath.Join(work.Path, "chapters")
	for _, name := range []string{"chapter_chapter_one.json", "chapter_chapter_one.txt", "note_chapter_one.txt"} {
		if _, err := os.Stat(filepath.Join(chapterDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if chapter.Number != 1 {
		t.Fatalf("chapter number %d, want 1", chapter.Number)
	}
}

func TestCreateChapterClampsNumber(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	chapter, err := service.CreateChapter(ctx, work, "Chapter Nine", 9)
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if chapter.Number != 2 {
		t.Fatalf("number %d, want clamp to 2", chapter.Number)
	}
	chapter, err = service.CreateChapter(ctx, work, "Prologue", -3)
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if chapter.Number != 1 {
		t.Fatalf("number %d, want clamp to 1", chapter.Number)
	}
}

func TestCreateChapterTitleCollision(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	// "chapter ONE" collapses to the same files as "Chapter One".
	_, err := service.CreateChapter(ctx, work, "chapter ONE", 2)
	assertCode(t, err, "ALREADY_EXISTS")

	if _, err := service.CreateChapter(ctx, work, "Chapter Two", 2); err != nil {
		t.Fatalf("distinct title rejected: %v", err)
	}
}

func TestSaveSelectChapterRoundTrip(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	body := "It was a dark and stormy night.\n\n\tTabs and blank lines survive.\n"
	notes := "remember: storm imagery"
	if err := service.SaveChapter(ctx, work, "Chapter One", body, notes); err != nil {
		t.Fatalf("save chapter: %v", err)
	}

	selected, err := service.SelectChapter(ctx, work, "chapter_one")
	if err != nil {
		t.Fatalf("select chapter: %v", err)
	}
	if selected.Content != body {
		t.Fatalf("content %q, want %q", selected.Content, body)
	}
	if selected.Notes != notes {
		t.Fatalf("notes %q, want %q", selected.Notes, notes)
	}
	if selected.Chapter.Title != "Chapter One" {
		t.Fatalf("title %q", selected.Chapter.Title)
	}
}

func TestSaveChapterUnknownTitle(t *testing.T) {
	service, _ := newTestService(t)
	work := newTestWork(t, service)

	err := service.SaveChapter(context.Background(), work, "No Such Chapter", "x", "y")
	assertCode(t, err, "NOT_FOUND")
}

func TestRenameChapterKeepsContent(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if err := service.SaveChapter(ctx, work, "Chapter One", "the body", "the notes"); err != nil {
		t.Fatalf("save chapter: %v", err)
	}

	renamed, err := service.RenameChapter(ctx, work, "Chapter One", "Opening")
	if err != nil {
		t.Fatalf("rename chapter: %v", err)
	}
	if renamed.Title != "Opening" {
		t.Fatalf("title %q after rename", renamed.Title)
	}

	// The new files must hold the chapter's content, not be emptied by a
	// reversed copy.
	selected, err := service.SelectChapter(ctx, work, "opening")
	if err != nil {
		t.Fatalf("select renamed chapter: %v", err)
	}
	if selected.Content != "the body" {
		t.Fatalf("content %q after rename, want %q", selected.Content, "the body")
	}
	if selected.Notes != "the notes" {
		t.Fatalf("notes %q after rename, want %q", selected.Notes, "the notes")
	}

	if _, err := service.SelectChapter(ctx, work, "chapter_one"); err == nil {
		t.Fatal("old resource id still resolves")
	}
	if _, err := os.Stat(filepath.Join(work.Path, "chapters", "chapter_chapter_one.json")); !os.IsNotExist(err) {
		t.Fatalf("old snapshot still present: %v", err)
	}
}

func TestRenameChapterCollision(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if _, err := service.CreateChapter(ctx, work, "Chapter Two", 2); err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	_, err := service.RenameChapter(ctx, work, "Chapter One", "Chapter Two")
	assertCode(t, err, "ALREADY_EXISTS")

	_, err = service.RenameChapter(ctx, work, "Chapter One", "Chapter One")
	assertCode(t, err, "ALREADY_EXISTS")

	// The failed rename must leave the chapter reachable under its old name.
	if _, err := service.SelectChapter(ctx, work, "chapter_one"); err != nil {
		t.Fatalf("chapter lost after failed rename: %v", err)
	}
}

func TestDeleteChapter(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	work := newTestWork(t, service)

	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if err := service.DeleteChapter(ctx, work, "Chapter One"); err != nil {
		t.Fatalf("delete chapter: %v", err)
	}

	_, err := service.SelectChapter(ctx, work, "chapter_one")
	assertCode(t, err, "NOT_FOUND")

	err = service.DeleteChapter(ctx, work, "Chapter One")
	assertCode(t, err, "NOT_FOUND")
}
