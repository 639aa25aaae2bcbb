package app

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"

	"draftbook/api/internal/content"
	"draftbook/api/internal/store"
	"draftbook/api/internal/util"
)

// CreateNoteCategory provisions a category directory, or rehydrates an
// existing one: a surviving snapshot wins over the metadata row, a corrupt
// snapshot is overwritten, and the note manifest is rebuilt from the files
// actually on disk before the row is persisted.
func (s *Service) CreateNoteCategory(ctx context.Context, work store.Work, name string) (store.NoteCategory, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	resource := util.ResourceID(name)
	if resource == "" {
		return store.NoteCategory{}, errInvalidName("category name must contain at least one letter")
	}

	categoryDir := s.paths.CategoryDir(work.Path, name)
	snapshotPath := s.paths.CategorySnapshot(categoryDir)
	category := store.NoteCategory{
		ID:     util.NewID("cat"),
		WorkID: work.ID,
		Name:   name,
		Notes:  []string{},
	}

	existing, err := s.workNoteCategories(ctx, work)
	if err != nil {
		return store.NoteCategory{}, err
	}
	for _, other := range existing {
		if util.ResourceID(other.Name) == resource {
			category = other
			break
		}
	}

	var snapshot store.NoteCategory
	switch err := s.content.ReadSnapshot(snapshotPath, &snapshot); {
	case err == nil:
		snapshot.WorkID = work.ID
		category = snapshot
	case errors.Is(err, content.ErrNotFound):
		if err := s.content.MkdirAll(categoryDir); err != nil {
			log.Printf("app: create category dir %s: %v", categoryDir, err)
			return store.NoteCategory{}, errIOFailure("could not create note category")
		}
	default:
		log.Printf("app: overwriting unreadable category snapshot %s: %v", snapshotPath, err)
	}

	notes, err := s.content.ReconcileNotes(categoryDir)
	if err != nil {
		log.Printf("app: reconcile notes in %s: %v", categoryDir, err)
		return store.NoteCategory{}, errIOFailure("could not create note category")
	}
	category.Notes = notes

	if err := s.content.WriteSnapshot(snapshotPath, category); err != nil {
		log.Printf("app: write category snapshot %s: %v", snapshotPath, err)
		return store.NoteCategory{}, errIOFailure("could not create note category")
	}
	if err := s.store.SaveNoteCategory(ctx, category); err != nil {
		log.Printf("app: save category %s: %v", category.ID, err)
		return store.NoteCategory{}, errIOFailure("could not create note category")
	}
	return category, nil
}

// DeleteNoteCategory removes every tracked note file, the category directory
// and the metadata row.
func (s *Service) DeleteNoteCategory(ctx context.Context, work store.Work, name string) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, name)
	if err != nil {
		return err
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	for _, note := range category.Notes {
		if err := s.content.Remove(s.paths.NoteFile(categoryDir, note)); err != nil {
			log.Printf("app: remove note %s: %v", note, err)
		}
	}
	if err := s.content.RemoveAll(categoryDir); err != nil {
		log.Printf("app: remove category dir %s: %v", categoryDir, err)
		return errIOFailure("could not delete note category")
	}
	if err := s.store.DeleteNoteCategory(ctx, category.ID); err != nil {
		log.Printf("app: delete category row %s: %v", category.ID, err)
		return errIOFailure("could not delete note category")
	}
	return nil
}

// AddNote creates a note file and appends it to the category manifest.
func (s *Service) AddNote(ctx context.Context, work store.Work, categoryName, noteName, text string) (store.NoteCategory, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, categoryName)
	if err != nil {
		return store.NoteCategory{}, err
	}
	if !validNoteName(noteName) {
		return store.NoteCategory{}, errInvalidName("note name must be non-empty and free of path separators")
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	noteFile := s.paths.NoteFile(categoryDir, noteName)
	if slices.Contains(category.Notes, noteName) || s.content.Exists(noteFile) {
		return store.NoteCategory{}, errAlreadyExists("a note with that name already exists")
	}
	if err := s.content.WriteText(noteFile, text); err != nil {
		log.Printf("app: write note %s: %v", noteFile, err)
		return store.NoteCategory{}, errIOFailure("could not create note")
	}
	category.Notes = append(category.Notes, noteName)
	if err := s.persistCategory(ctx, categoryDir, category); err != nil {
		return store.NoteCategory{}, err
	}
	return category, nil
}

// SelectNote returns the text of a tracked note. A manifest entry whose file
// has gone missing is evicted before reporting not found.
func (s *Service) SelectNote(ctx context.Context, work store.Work, categoryName, noteName string) (string, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, categoryName)
	if err != nil {
		return "", err
	}
	if !slices.Contains(category.Notes, noteName) {
		return "", errNotFound("note not found")
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	text, err := s.content.ReadText(s.paths.NoteFile(categoryDir, noteName))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			s.evictNote(ctx, categoryDir, category, noteName)
			return "", errNotFound("note not found")
		}
		log.Printf("app: read note %s: %v", noteName, err)
		return "", errIOFailure("could not load note")
	}
	return text, nil
}

// SaveNote overwrites the text of a tracked note.
func (s *Service) SaveNote(ctx context.Context, work store.Work, categoryName, noteName, text string) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, categoryName)
	if err != nil {
		return err
	}
	if !slices.Contains(category.Notes, noteName) {
		return errNotFound("note not found")
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	if err := s.content.WriteText(s.paths.NoteFile(categoryDir, noteName), text); err != nil {
		log.Printf("app: save note %s: %v", noteName, err)
		return errIOFailure("could not save note")
	}
	return nil
}

// RenameNote moves the note file and swaps the manifest entry in place, so
// the note keeps its position in the category.
func (s *Service) RenameNote(ctx context.Context, work store.Work, categoryName, oldName, newName string) (store.NoteCategory, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, categoryName)
	if err != nil {
		return store.NoteCategory{}, err
	}
	if !validNoteName(newName) {
		return store.NoteCategory{}, errInvalidName("note name must be non-empty and free of path separators")
	}
	index := slices.Index(category.Notes, oldName)
	if index < 0 {
		return store.NoteCategory{}, errNotFound("note not found")
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	newFile := s.paths.NoteFile(categoryDir, newName)
	if slices.Contains(category.Notes, newName) || s.content.Exists(newFile) {
		return store.NoteCategory{}, errAlreadyExists("a note with that name already exists")
	}
	if err := s.content.Rename(s.paths.NoteFile(categoryDir, oldName), newFile); err != nil {
		log.Printf("app: rename note %s -> %s: %v", oldName, newName, err)
		return store.NoteCategory{}, errIOFailure("could not rename note")
	}
	category.Notes[index] = newName
	if err := s.persistCategory(ctx, categoryDir, category); err != nil {
		return store.NoteCategory{}, err
	}
	return category, nil
}

// DeleteNote removes the note file and drops it from the manifest. A tracked
// note whose file is already gone is evicted and still reported missing.
func (s *Service) DeleteNote(ctx context.Context, work store.Work, categoryName, noteName string) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	category, err := s.categoryByName(ctx, work, categoryName)
	if err != nil {
		return err
	}
	index := slices.Index(category.Notes, noteName)
	if index < 0 {
		return errNotFound("note not found")
	}
	categoryDir := s.paths.CategoryDir(work.Path, category.Name)
	noteFile := s.paths.NoteFile(categoryDir, noteName)
	if !s.content.Exists(noteFile) {
		s.evictNote(ctx, categoryDir, category, noteName)
		return errNotFound("note not found")
	}
	if err := s.content.Remove(noteFile); err != nil {
		log.Printf("app: remove note %s: %v", noteName, err)
		return errIOFailure("could not delete note")
	}
	category.Notes = slices.Delete(category.Notes, index, index+1)
	return s.persistCategory(ctx, categoryDir, category)
}

// validNoteName rejects names that would join into a path outside the
// category directory. Note names are otherwise used verbatim.
func validNoteName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`)
}

func (s *Service) categoryByName(ctx context.Context, work store.Work, name string) (store.NoteCategory, error) {
	categories, err := s.workNoteCategories(ctx, work)
	if err != nil {
		return store.NoteCategory{}, err
	}
	for _, category := range categories {
		if category.Name == name {
			return category, nil
		}
	}
	return store.NoteCategory{}, errNotFound("note category not found")
}

// persistCategory writes the snapshot and row together after a manifest
// mutation.
func (s *Service) persistCategory(ctx context.Context, categoryDir string, category store.NoteCategory) error {
	if err := s.content.WriteSnapshot(s.paths.CategorySnapshot(categoryDir), category); err != nil {
		log.Printf("app: write category snapshot %s: %v", category.ID, err)
		return errIOFailure("could not update note category")
	}
	if err := s.store.SaveNoteCategory(ctx, category); err != nil {
		log.Printf("app: save category %s: %v", category.ID, err)
		return errIOFailure("could not update note category")
	}
	return nil
}

func (s *Service) evictNote(ctx context.Context, categoryDir string, category store.NoteCategory, noteName string) {
	index := slices.Index(category.Notes, noteName)
	if index < 0 {
		return
	}
	category.Notes = slices.Delete(category.Notes, index, index+1)
	if err := s.persistCategory(ctx, categoryDir, category); err != nil {
		log.Printf("app: evict missing note %s: %v", noteName, err)
	}
}
