package store

import "time"

// Account owns zero or more works. Usernames are unique and case-sensitive.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthToken binds an opaque random value to an account. One live token per
// account by convention; the authority enforces it on issue, not the schema.
type AuthToken struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Work is a single writing project. Path caches the canonical directory
// derived from (owner, title) at creation time; it is rebuilt explicitly on
// rename, never implicitly.
type Work struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

// Chapter belongs to a work. Number is the display ordering; Path caches the
// work's chapters directory.
type Chapter struct {
	ID     string `json:"id"`
	WorkID string `json:"workId"`
	Title  string `json:"title"`
	Number int    `json:"number"`
	Path   string `json:"path"`
}

// NoteCategory groups the note files stored in its directory. Notes is a
// cached manifest of the file names (extensions stripped) and must be
// reconciled against the filesystem on load; the directory is authoritative.
type NoteCategory struct {
	ID     string   `json:"id"`
	WorkID string   `json:"workId"`
	Name   string   `json:"name"`
	Notes  []string `json:"notes"`
}
