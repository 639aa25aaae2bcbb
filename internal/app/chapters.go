package app

import (
	"context"
	"errors"
	"log"

	"draftbook/api/internal/content"
	"draftbook/api/internal/store"
	"draftbook/api/internal/util"
)

// ChapterText bundles a chapter record with the text of its two files.
type ChapterText struct {
	Chapter store.Chapter
	Content string
	Notes   string
}

// CreateChapter adds a chapter at the requested position. Number is clamped
// into [1, existing+1] so the sequence never gains a gap. The snapshot, body
// and notes files are each attempted even when an earlier one fails; nothing
// is rolled back, and the record is only persisted when all three succeeded.
func (s *Service) CreateChapter(ctx context.Context, work store.Work, title string, number int) (store.Chapter, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	resource := util.ResourceID(title)
	if resource == "" {
		return store.Chapter{}, errInvalidName("chapter title must contain at least one letter")
	}
	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return store.Chapter{}, err
	}
	for _, existing := range chapters {
		if util.ResourceID(existing.Title) == resource {
			return store.Chapter{}, errAlreadyExists("a chapter with that title already exists")
		}
	}
	if number > len(chapters)+1 {
		number = len(chapters) + 1
	}
	if number < 1 {
		number = 1
	}

	chapter := store.Chapter{
		ID:     util.NewID("chp"),
		WorkID: work.ID,
		Title:  title,
		Number: number,
		Path:   s.paths.ChapterDir(work.Path),
	}

	var failed bool
	if err := s.content.WriteSnapshot(s.paths.ChapterSnapshot(chapter.Path, title), chapter); err != nil {
		log.Printf("app: write chapter snapshot: %v", err)
		failed = true
	}
	if err := s.content.WriteText(s.paths.ChapterBody(chapter.Path, title), ""); err != nil {
		log.Printf("app: write chapter body: %v", err)
		failed = true
	}
	if err := s.content.WriteText(s.paths.ChapterNotes(chapter.Path, title), ""); err != nil {
		log.Printf("app: write chapter notes: %v", err)
		failed = true
	}
	if failed {
		return store.Chapter{}, errIOFailure("could not create chapter")
	}
	if err := s.store.SaveChapter(ctx, chapter); err != nil {
		log.Printf("app: save chapter %s: %v", chapter.ID, err)
		return store.Chapter{}, errIOFailure("could not create chapter")
	}
	return chapter, nil
}

// SelectChapter loads the chapter whose derived resource id matches target,
// together with its body and notes text.
func (s *Service) SelectChapter(ctx context.Context, work store.Work, target string) (ChapterText, error) {
	chapter, err := s.chapterByResource(ctx, work, target)
	if err != nil {
		return ChapterText{}, err
	}
	body, err := s.content.ReadText(s.paths.ChapterBody(chapter.Path, chapter.Title))
	if err != nil {
		return ChapterText{}, chapterReadError("body", chapter, err)
	}
	notes, err := s.content.ReadText(s.paths.ChapterNotes(chapter.Path, chapter.Title))
	if err != nil {
		return ChapterText{}, chapterReadError("notes", chapter, err)
	}
	return ChapterText{Chapter: chapter, Content: body, Notes: notes}, nil
}

// SaveChapter overwrites the body and notes files of the chapter with the
// exact given title.
func (s *Service) SaveChapter(ctx context.Context, work store.Work, title, body, notes string) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	chapter, err := s.chapterByTitle(ctx, work, title)
	if err != nil {
		return err
	}
	if err := s.content.WriteText(s.paths.ChapterBody(chapter.Path, chapter.Title), body); err != nil {
		log.Printf("app: save chapter body %s: %v", chapter.ID, err)
		return errIOFailure("could not save chapter")
	}
	if err := s.content.WriteText(s.paths.ChapterNotes(chapter.Path, chapter.Title), notes); err != nil {
		log.Printf("app: save chapter notes %s: %v", chapter.ID, err)
		return errIOFailure("could not save chapter")
	}
	return nil
}

// RenameChapter copies the body and notes into files named after the new
// title, writes the snapshot under the new name, removes the old snapshot and
// only then persists the record. A failure midway removes whatever new files
// were already written and leaves the chapter under its old title.
func (s *Service) RenameChapter(ctx context.Context, work store.Work, title, newTitle string) (store.Chapter, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	chapter, err := s.chapterByTitle(ctx, work, title)
	if err != nil {
		return store.Chapter{}, err
	}
	if util.ResourceID(newTitle) == "" {
		return store.Chapter{}, errInvalidName("chapter title must contain at least one letter")
	}

	newBody := s.paths.ChapterBody(chapter.Path, newTitle)
	newNotes := s.paths.ChapterNotes(chapter.Path, newTitle)
	if newTitle == chapter.Title || s.content.Exists(newBody) || s.content.Exists(newNotes) {
		return store.Chapter{}, errAlreadyExists("a chapter with that title already exists")
	}

	cleanup := func(created ...string) {
		for _, path := range created {
			if err := s.content.Remove(path); err != nil {
				log.Printf("app: clean up %s after failed rename: %v", path, err)
			}
		}
	}

	body, err := s.content.ReadText(s.paths.ChapterBody(chapter.Path, chapter.Title))
	if err != nil {
		log.Printf("app: read chapter body %s: %v", chapter.ID, err)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}
	if err := s.content.WriteText(newBody, body); err != nil {
		log.Printf("app: write renamed body %s: %v", chapter.ID, err)
		cleanup(newBody)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}

	notes, err := s.content.ReadText(s.paths.ChapterNotes(chapter.Path, chapter.Title))
	if err != nil {
		log.Printf("app: read chapter notes %s: %v", chapter.ID, err)
		cleanup(newBody)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}
	if err := s.content.WriteText(newNotes, notes); err != nil {
		log.Printf("app: write renamed notes %s: %v", chapter.ID, err)
		cleanup(newBody, newNotes)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}

	oldTitle := chapter.Title
	newSnapshot := s.paths.ChapterSnapshot(chapter.Path, newTitle)
	chapter.Title = newTitle
	if err := s.content.WriteSnapshot(newSnapshot, chapter); err != nil {
		log.Printf("app: write renamed snapshot %s: %v", chapter.ID, err)
		chapter.Title = oldTitle
		cleanup(newBody, newNotes, newSnapshot)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}
	if err := s.content.Remove(s.paths.ChapterSnapshot(chapter.Path, oldTitle)); err != nil {
		log.Printf("app: remove old chapter snapshot %s: %v", chapter.ID, err)
	}
	if err := s.store.SaveChapter(ctx, chapter); err != nil {
		log.Printf("app: save chapter %s: %v", chapter.ID, err)
		return store.Chapter{}, errIOFailure("could not rename chapter")
	}
	return chapter, nil
}

// DeleteChapter removes the chapter's three files and its record. File
// removals are best-effort; only a record failure aborts.
func (s *Service) DeleteChapter(ctx context.Context, work store.Work, title string) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	chapter, err := s.chapterByTitle(ctx, work, title)
	if err != nil {
		return err
	}
	for _, path := range []string{
		s.paths.ChapterSnapshot(chapter.Path, chapter.Title),
		s.paths.ChapterBody(chapter.Path, chapter.Title),
		s.paths.ChapterNotes(chapter.Path, chapter.Title),
	} {
		if err := s.content.Remove(path); err != nil {
			log.Printf("app: remove %s: %v", path, err)
		}
	}
	if err := s.store.DeleteChapter(ctx, chapter.ID); err != nil {
		log.Printf("app: delete chapter row %s: %v", chapter.ID, err)
		return errIOFailure("could not delete chapter")
	}
	return nil
}

func (s *Service) chapterByResource(ctx context.Context, work store.Work, target string) (store.Chapter, error) {
	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return store.Chapter{}, err
	}
	for _, chapter := range chapters {
		if util.ResourceID(chapter.Title) == target {
			return chapter, nil
		}
	}
	return store.Chapter{}, errNotFound("chapter not found")
}

func (s *Service) chapterByTitle(ctx context.Context, work store.Work, title string) (store.Chapter, error) {
	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return store.Chapter{}, err
	}
	for _, chapter := range chapters {
		if chapter.Title == title {
			return chapter, nil
		}
	}
	return store.Chapter{}, errNotFound("chapter not found")
}

func chapterReadError(kind string, chapter store.Chapter, err error) error {
	if errors.Is(err, content.ErrNotFound) {
		return errNotFound("chapter " + kind + " not found")
	}
	log.Printf("app: read chapter %s %s: %v", kind, chapter.ID, err)
	return errIOFailure("could not load chapter")
}
