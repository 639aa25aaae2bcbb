package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"draftbook/api/internal/store"
)

func TestCreateWorkProvisionsDirectory(t *testing.T) {
	service, dataRoot := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	work, err := service.CreateWork(ctx, account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	wantDir := filepath.Join(dataRoot, "alice", "works", "my_novel")
	if work.Path != wantDir {
		t.Fatalf("work path %s, want %s", work.Path, wantDir)
	}
	if _, err := os.Stat(filepath.Join(wantDir, "work.json")); err != nil {
		t.Fatalf("work snapshot missing: %v", err)
	}

	chapters, err := service.Chapters(ctx, work)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(chapters) != 0 {
		t.Fatalf("new work has %d chapters, want 0", len(chapters))
	}
}

func TestCreateWorkTitleCollision(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	if _, err := service.CreateWork(ctx, account, "My Novel"); err != nil {
		t.Fatalf("create work: %v", err)
	}
	// Distinct title, same derived resource id.
	_, err := service.CreateWork(ctx, account, "my novel")
	assertCode(t, err, "ALREADY_EXISTS")

	_, err = service.CreateWork(ctx, account, "123")
	assertCode(t, err, "INVALID_NAME")
}

func TestCreateWorkIsolatedPerAccount(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	alice := registerTestAccount(t, service, "alice")
	bob := registerTestAccount(t, service, "bob")

	if _, err := service.CreateWork(ctx, alice, "My Novel"); err != nil {
		t.Fatalf("create alice work: %v", err)
	}
	if _, err := service.CreateWork(ctx, bob, "My Novel"); err != nil {
		t.Fatalf("same title under another account rejected: %v", err)
	}

	works, err := service.Works(ctx, alice)
	if err != nil {
		t.Fatalf("list works: %v", err)
	}
	if len(works) != 1 {
		t.Fatalf("alice sees %d works, want 1", len(works))
	}
	if _, err := service.WorkByResource(ctx, alice, "my_novel"); err != nil {
		t.Fatalf("resolve alice work: %v", err)
	}
}

func TestWorkByResourceNotFound(t *testing.T) {
	service, _ := newTestService(t)
	account := registerTestAccount(t, service, "alice")

	_, err := service.WorkByResource(context.Background(), account, "missing")
	assertCode(t, err, "NOT_FOUND")
}

func TestRenameWorkMovesTree(t *testing.T) {
	service, dataRoot := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	work, err := service.CreateWork(ctx, account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if err := service.SaveChapter(ctx, work, "Chapter One", "draft text", ""); err != nil {
		t.Fatalf("save chapter: %v", err)
	}

	renamed, err := service.RenameWork(ctx, account, work, "Second Draft")
	if err != nil {
		t.Fatalf("rename work: %v", err)
	}
	wantDir := filepath.Join(dataRoot, "alice", "works", "second_draft")
	if renamed.Path != wantDir {
		t.Fatalf("renamed path %s, want %s", renamed.Path, wantDir)
	}
	if _, err := os.Stat(filepath.Join(dataRoot, "alice", "works", "my_novel")); !os.IsNotExist(err) {
		t.Fatalf("old directory still present: %v", err)
	}

	// Chapter content must survive under the moved tree.
	selected, err := service.SelectChapter(ctx, renamed, "chapter_one")
	if err != nil {
		t.Fatalf("select chapter after rename: %v", err)
	}
	if selected.Content != "draft text" {
		t.Fatalf("chapter content %q after rename", selected.Content)
	}

	if _, err := service.WorkByResource(ctx, account, "my_novel"); err == nil {
		t.Fatal("old resource id still resolves")
	}
}

func TestRenameWorkRewritesChapterSnapshots(t *testing.T) {
	service, dataRoot := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	work, err := service.CreateWork(ctx, account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	renamed, err := service.RenameWork(ctx, account, work, "Second Draft")
	if err != nil {
		t.Fatalf("rename work: %v", err)
	}

	wantDir := filepath.Join(dataRoot, "alice", "works", "second_draft", "chapters")
	raw, err := os.ReadFile(filepath.Join(wantDir, "chapter_chapter_one.json"))
	if err != nil {
		t.Fatalf("read chapter snapshot: %v", err)
	}
	var snapshot store.Chapter
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("decode chapter snapshot: %v", err)
	}
	if snapshot.Path != wantDir {
		t.Fatalf("snapshot path %s, want %s", snapshot.Path, wantDir)
	}
	if snapshot.WorkID != renamed.ID {
		t.Fatalf("snapshot work id %s, want %s", snapshot.WorkID, renamed.ID)
	}
}

func TestRenameWorkCollision(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	work, err := service.CreateWork(ctx, account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	if _, err := service.CreateWork(ctx, account, "Other Story"); err != nil {
		t.Fatalf("create work: %v", err)
	}

	_, err = service.RenameWork(ctx, account, work, "Other Story")
	assertCode(t, err, "ALREADY_EXISTS")
}

func TestDeleteWorkCascades(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	account := registerTestAccount(t, service, "alice")

	work, err := service.CreateWork(ctx, account, "My Novel")
	if err != nil {
		t.Fatalf("create work: %v", err)
	}
	if _, err := service.CreateChapter(ctx, work, "Chapter One", 1); err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	if _, err := service.CreateNoteCategory(ctx, work, "Characters"); err != nil {
		t.Fatalf("create category: %v", err)
	}

	if err := service.DeleteWork(ctx, work); err != nil {
		t.Fatalf("delete work: %v", err)
	}
	if _, err := os.Stat(work.Path); !os.IsNotExist(err) {
		t.Fatalf("work tree still present: %v", err)
	}
	_, err = service.WorkByResource(ctx, account, "my_novel")
	assertCode(t, err, "NOT_FOUND")
}
