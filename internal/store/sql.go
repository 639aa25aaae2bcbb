package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLStore persists metadata records behind the scan-and-filter contract:
// full listing per entity plus upsert and delete by id. Callers filter in
// memory; no indexed lookup is part of the contract. The SQL is portable
// across the pgx and sqlite drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Accounts

func (s *SQLStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, password_hash, created_at FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	items := make([]Account, 0)
	for rows.Next() {
		var item Account
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Username, &item.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return items, nil
}

func (s *SQLStore) SaveAccount(ctx context.Context, item Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username=excluded.username, password_hash=excluded.password_hash
	`, item.ID, item.Username, item.PasswordHash, formatTime(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteAccount(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Auth tokens

func (s *SQLStore) ListAuthTokens(ctx context.Context) ([]AuthToken, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, account_id, value, created_at FROM auth_tokens`)
	if err != nil {
		return nil, fmt.Errorf("list auth tokens: %w", err)
	}
	defer rows.Close()

	items := make([]AuthToken, 0)
	for rows.Next() {
		var item AuthToken
		var createdAt string
		if err := rows.Scan(&item.ID, &item.AccountID, &item.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scan auth token: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auth tokens: %w", err)
	}
	return items, nil
}

func (s *SQLStore) SaveAuthToken(ctx context.Context, item AuthToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (id, account_id, value, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET account_id=excluded.account_id, value=excluded.value
	`, item.ID, item.AccountID, item.Value, formatTime(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("save auth token: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteAuthToken(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete auth token: %w", err)
	}
	return nil
}

// Works

func (s *SQLStore) ListWorks(ctx context.Context) ([]Work, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, account_id, title, path, created_at FROM works`)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	items := make([]Work, 0)
	for rows.Next() {
		var item Work
		var createdAt string
		if err := rows.Scan(&item.ID, &item.AccountID, &item.Title, &item.Path, &createdAt); err != nil {
			return nil, fmt.Errorf("scan work: %w", err)
		}
		item.CreatedAt = parseTime(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate works: %w", err)
	}
	return items, nil
}

func (s *SQLStore) SaveWork(ctx context.Context, item Work) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO works (id, account_id, title, path, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET account_id=excluded.account_id, title=excluded.title, path=excluded.path
	`, item.ID, item.AccountID, item.Title, item.Path, formatTime(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("save work: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteWork(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM works WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete work: %w", err)
	}
	return nil
}

// Chapters

func (s *SQLStore) ListChapters(ctx context.Context) ([]Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, work_id, title, number, path FROM chapters`)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	items := make([]Chapter, 0)
	for rows.Next() {
		var item Chapter
		if err := rows.Scan(&item.ID, &item.WorkID, &item.Title, &item.Number, &item.Path); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	return items, nil
}

func (s *SQLStore) SaveChapter(ctx context.Context, item Chapter) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chapters (id, work_id, title, number, path)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET work_id=excluded.work_id, title=excluded.title, number=excluded.number, path=excluded.path
	`, item.ID, item.WorkID, item.Title, item.Number, item.Path)
	if err != nil {
		return fmt.Errorf("save chapter: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteChapter(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	return nil
}

// Note categories

func (s *SQLStore) ListNoteCategories(ctx context.Context) ([]NoteCategory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, work_id, name, notes FROM note_categories`)
	if err != nil {
		return nil, fmt.Errorf("list note categories: %w", err)
	}
	defer rows.Close()

	items := make([]NoteCategory, 0)
	for rows.Next() {
		var item NoteCategory
		var notes string
		if err := rows.Scan(&item.ID, &item.WorkID, &item.Name, &notes); err != nil {
			return nil, fmt.Errorf("scan note category: %w", err)
		}
		if err := json.Unmarshal([]byte(notes), &item.Notes); err != nil {
			return nil, fmt.Errorf("decode note manifest: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note categories: %w", err)
	}
	return items, nil
}

func (s *SQLStore) SaveNoteCategory(ctx context.Context, item NoteCategory) error {
	if item.Notes == nil {
		item.Notes = []string{}
	}
	notes, err := json.Marshal(item.Notes)
	if err != nil {
		return fmt.Errorf("encode note manifest: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO note_categories (id, work_id, name, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET work_id=excluded.work_id, name=excluded.name, notes=excluded.notes
	`, item.ID, item.WorkID, item.Name, string(notes))
	if err != nil {
		return fmt.Errorf("save note category: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteNoteCategory(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM note_categories WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete note category: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
