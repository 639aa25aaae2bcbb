// Package paths derives the canonical on-disk locations for accounts, works,
// chapters and note categories. Every path is a deterministic join of the
// configured data root and resource identifiers; nothing here touches the
// filesystem.
package paths

import (
	"path/filepath"

	"draftbook/api/internal/util"
)

// Layout under the data root:
//
//	<root>/<account-id>/works/<work-id>/work.json
//	<root>/<account-id>/works/<work-id>/chapters/chapter_<id>.json
//	<root>/<account-id>/works/<work-id>/chapters/chapter_<id>.txt
//	<root>/<account-id>/works/<work-id>/chapters/note_<id>.txt
//	<root>/<account-id>/works/<work-id>/notes/<category-id>/<category-id>.json
//	<root>/<account-id>/works/<work-id>/notes/<category-id>/<note-name>.txt
type Builder struct {
	root string
}

// New returns a Builder rooted at the process-wide data directory. The root is
// read from configuration once at startup and injected here; it is never
// consulted again from the environment.
func New(root string) *Builder {
	return &Builder{root: root}
}

func (b *Builder) Root() string {
	return b.root
}

// AccountDir returns the directory owning all of an account's works.
func (b *Builder) AccountDir(username string) string {
	return filepath.Join(b.root, util.ResourceID(username))
}

// WorkDir returns the canonical directory for a work given its owner's
// username and the work title. Both are reduced to resource identifiers.
func (b *Builder) WorkDir(username, title string) string {
	return filepath.Join(b.AccountDir(username), "works", util.ResourceID(title))
}

// ChapterDir returns the shared chapters directory beneath a work directory.
// workDir is the cached path carried on the work record.
func (b *Builder) ChapterDir(workDir string) string {
	return filepath.Join(workDir, "chapters")
}

// WorkSnapshot returns the path of the work's JSON backup copy.
func (b *Builder) WorkSnapshot(workDir string) string {
	return filepath.Join(workDir, "work.json")
}

// ChapterSnapshot returns the chapter's JSON backup copy inside chapterDir.
func (b *Builder) ChapterSnapshot(chapterDir, title string) string {
	return filepath.Join(chapterDir, "chapter_"+util.ResourceID(title)+".json")
}

// ChapterBody returns the chapter's content file inside chapterDir.
func (b *Builder) ChapterBody(chapterDir, title string) string {
	return filepath.Join(chapterDir, "chapter_"+util.ResourceID(title)+".txt")
}

// ChapterNotes returns the chapter's free-form notes file inside chapterDir.
func (b *Builder) ChapterNotes(chapterDir, title string) string {
	return filepath.Join(chapterDir, "note_"+util.ResourceID(title)+".txt")
}

// CategoryDir returns the directory holding a note category's files. The
// category name is reduced to a resource identifier so the segment stays
// filesystem-safe; the raw name lives on the metadata record.
func (b *Builder) CategoryDir(workDir, categoryName string) string {
	return filepath.Join(workDir, "notes", util.ResourceID(categoryName))
}

// CategorySnapshot returns the category's JSON backup copy, stored inside the
// category directory itself.
func (b *Builder) CategorySnapshot(categoryDir string) string {
	return filepath.Join(categoryDir, filepath.Base(categoryDir)+".json")
}

// NoteFile returns the text file backing a single note.
func (b *Builder) NoteFile(categoryDir, noteName string) string {
	return filepath.Join(categoryDir, noteName+".txt")
}
