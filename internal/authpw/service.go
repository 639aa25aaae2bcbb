// Package authpw provides username/password registration and authentication
// over account records. Password policy lives here, outside the content
// store: hashes never leave this package.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"draftbook/api/internal/store"
	"draftbook/api/internal/util"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken reports a registration against an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials reports a failed sign-in. Unknown username and
	// wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AccountStore is the storage capability the service needs. Lookups are
// scan-and-filter over the full account list.
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]store.Account, error)
	SaveAccount(ctx context.Context, account store.Account) error
}

type Service struct {
	accounts AccountStore
}

func NewService(accounts AccountStore) *Service {
	return &Service{accounts: accounts}
}

// Register creates a new account with a bcrypt-hashed password. Usernames are
// unique and case-sensitive.
func (s *Service) Register(ctx context.Context, username, password string) (store.Account, error) {
	if username == "" || password == "" {
		return store.Account{}, errors.New("username and password are required")
	}

	taken, err := s.Exists(ctx, username)
	if err != nil {
		return store.Account{}, err
	}
	if taken {
		return store.Account{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return store.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := store.Account{
		ID:           util.NewID("acc"),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return store.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Authenticate verifies the password for the username and returns the
// account, or ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.Account, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return store.Account{}, fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		if account.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
			return store.Account{}, ErrInvalidCredentials
		}
		return account, nil
	}
	return store.Account{}, ErrInvalidCredentials
}

// Exists reports whether the username is registered.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return false, fmt.Errorf("list accounts: %w", err)
	}
	for _, account := range accounts {
		if account.Username == username {
			return true, nil
		}
	}
	return false, nil
}
