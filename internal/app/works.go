package app

import (
	"context"
	"log"
	"sort"
	"time"

	"draftbook/api/internal/store"
	"draftbook/api/internal/util"
)

// CreateWork provisions the metadata row and the on-disk directory for a new
// work. The directory name comes from the title's resource id, so two titles
// that collapse to the same id collide.
func (s *Service) CreateWork(ctx context.Context, account store.Account, title string) (store.Work, error) {
	resource := util.ResourceID(title)
	if resource == "" {
		return store.Work{}, errInvalidName("title must contain at least one letter")
	}
	works, err := s.accountWorks(ctx, account)
	if err != nil {
		return store.Work{}, err
	}
	for _, existing := range works {
		if util.ResourceID(existing.Title) == resource {
			return store.Work{}, errAlreadyExists("a work with that title already exists")
		}
	}

	work := store.Work{
		ID:        util.NewID("wrk"),
		AccountID: account.ID,
		Title:     title,
		Path:      s.paths.WorkDir(account.Username, title),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.content.MkdirAll(work.Path); err != nil {
		log.Printf("app: create work dir %s: %v", work.Path, err)
		return store.Work{}, errIOFailure("could not create work")
	}
	if err := s.content.WriteSnapshot(s.paths.WorkSnapshot(work.Path), work); err != nil {
		log.Printf("app: write work snapshot: %v", err)
		return store.Work{}, errIOFailure("could not create work")
	}
	if err := s.store.SaveWork(ctx, work); err != nil {
		log.Printf("app: save work %s: %v", work.ID, err)
		return store.Work{}, errIOFailure("could not create work")
	}
	return work, nil
}

// Works lists the account's works in a stable title order.
func (s *Service) Works(ctx context.Context, account store.Account) ([]store.Work, error) {
	works, err := s.accountWorks(ctx, account)
	if err != nil {
		return nil, err
	}
	sort.Slice(works, func(i, j int) bool { return works[i].Title < works[j].Title })
	return works, nil
}

// RenameWork moves the work's directory to the path derived from the new
// title and rewrites the snapshot and every chapter's cached path.
func (s *Service) RenameWork(ctx context.Context, account store.Account, work store.Work, newTitle string) (store.Work, error) {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	resource := util.ResourceID(newTitle)
	if resource == "" {
		return store.Work{}, errInvalidName("title must contain at least one letter")
	}
	works, err := s.accountWorks(ctx, account)
	if err != nil {
		return store.Work{}, err
	}
	for _, existing := range works {
		if existing.ID != work.ID && util.ResourceID(existing.Title) == resource {
			return store.Work{}, errAlreadyExists("a work with that title already exists")
		}
	}

	newPath := s.paths.WorkDir(account.Username, newTitle)
	if newPath != work.Path {
		if err := s.content.Rename(work.Path, newPath); err != nil {
			log.Printf("app: move work dir %s -> %s: %v", work.Path, newPath, err)
			return store.Work{}, errIOFailure("could not rename work")
		}
	}
	work.Title = newTitle
	work.Path = newPath
	if err := s.content.WriteSnapshot(s.paths.WorkSnapshot(work.Path), work); err != nil {
		log.Printf("app: rewrite work snapshot: %v", err)
		return store.Work{}, errIOFailure("could not rename work")
	}

	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return store.Work{}, err
	}
	chapterDir := s.paths.ChapterDir(work.Path)
	for _, chapter := range chapters {
		chapter.Path = chapterDir
		// The snapshot moved with the tree but still names the old path.
		if err := s.content.WriteSnapshot(s.paths.ChapterSnapshot(chapterDir, chapter.Title), chapter); err != nil {
			log.Printf("app: rewrite chapter snapshot %s: %v", chapter.ID, err)
			return store.Work{}, errIOFailure("could not rename work")
		}
		if err := s.store.SaveChapter(ctx, chapter); err != nil {
			log.Printf("app: update chapter path %s: %v", chapter.ID, err)
			return store.Work{}, errIOFailure("could not rename work")
		}
	}
	if err := s.store.SaveWork(ctx, work); err != nil {
		log.Printf("app: save work %s: %v", work.ID, err)
		return store.Work{}, errIOFailure("could not rename work")
	}
	return work, nil
}

// DeleteWork removes the work's directory tree and then its metadata rows.
// Row deletion is best-effort once the tree is gone.
func (s *Service) DeleteWork(ctx context.Context, work store.Work) error {
	mu := s.workLock(work.ID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.content.RemoveAll(work.Path); err != nil {
		log.Printf("app: remove work tree %s: %v", work.Path, err)
		return errIOFailure("could not delete work")
	}

	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return err
	}
	for _, chapter := range chapters {
		if err := s.store.DeleteChapter(ctx, chapter.ID); err != nil {
			log.Printf("app: delete chapter row %s: %v", chapter.ID, err)
		}
	}
	categories, err := s.workNoteCategories(ctx, work)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if err := s.store.DeleteNoteCategory(ctx, category.ID); err != nil {
			log.Printf("app: delete category row %s: %v", category.ID, err)
		}
	}
	if err := s.store.DeleteWork(ctx, work.ID); err != nil {
		log.Printf("app: delete work row %s: %v", work.ID, err)
		return errIOFailure("could not delete work")
	}
	return nil
}

// Chapters lists the work's chapters ordered by number.
func (s *Service) Chapters(ctx context.Context, work store.Work) ([]store.Chapter, error) {
	chapters, err := s.workChapters(ctx, work)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chapters, func(i, j int) bool { return chapters[i].Number < chapters[j].Number })
	return chapters, nil
}

// NoteCategories lists the work's note categories in name order.
func (s *Service) NoteCategories(ctx context.Context, work store.Work) ([]store.NoteCategory, error) {
	categories, err := s.workNoteCategories(ctx, work)
	if err != nil {
		return nil, err
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Service) accountWorks(ctx context.Context, account store.Account) ([]store.Work, error) {
	works, err := s.store.ListWorks(ctx)
	if err != nil {
		log.Printf("app: list works: %v", err)
		return nil, errIOFailure("could not load works")
	}
	matched := works[:0:0]
	for _, work := range works {
		if work.AccountID == account.ID {
			matched = append(matched, work)
		}
	}
	return matched, nil
}

func (s *Service) workChapters(ctx context.Context, work store.Work) ([]store.Chapter, error) {
	chapters, err := s.store.ListChapters(ctx)
	if err != nil {
		log.Printf("app: list chapters: %v", err)
		return nil, errIOFailure("could not load chapters")
	}
	matched := chapters[:0:0]
	for _, chapter := range chapters {
		if chapter.WorkID == work.ID {
			matched = append(matched, chapter)
		}
	}
	return matched, nil
}

func (s *Service) workNoteCategories(ctx context.Context, work store.Work) ([]store.NoteCategory, error) {
	categories, err := s.store.ListNoteCategories(ctx)
	if err != nil {
		log.Printf("app: list note categories: %v", err)
		return nil, errIOFailure("could not load note categories")
	}
	matched := categories[:0:0]
	for _, category := range categories {
		if category.WorkID == work.ID {
			matched = append(matched, category)
		}
	}
	return matched, nil
}
