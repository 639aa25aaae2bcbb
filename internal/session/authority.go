// Package session issues and resolves the opaque tokens that gate access to
// the content store. Tokens are plain records in a token store; there is no
// signed-claim scheme and no server-side expiry, only a client-visible TTL
// hint.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"draftbook/api/internal/store"
	"draftbook/api/internal/util"

	"github.com/google/uuid"
)

// MaxGenerateAttempts bounds the uniqueness retry loop on issue.
const MaxGenerateAttempts = 10

var (
	// ErrExhausted reports that no unique token value was found within the
	// retry bound.
	ErrExhausted = errors.New("token generation exhausted")
	// ErrUnauthorized reports a token value that resolves to no account.
	ErrUnauthorized = errors.New("unauthorized")
)

// TokenStore is the persistence capability the authority needs: full listing
// plus save and delete by id. The metadata store satisfies it directly; a
// Redis backing is provided for deployments that keep sessions out of the
// database.
type TokenStore interface {
	ListAuthTokens(ctx context.Context) ([]store.AuthToken, error)
	SaveAuthToken(ctx context.Context, token store.AuthToken) error
	DeleteAuthToken(ctx context.Context, id string) error
}

type Authority struct {
	tokens TokenStore
	ttl    time.Duration

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	// newValue is swappable in tests to force collisions.
	newValue func() string
}

func NewAuthority(tokens TokenStore, ttl time.Duration) *Authority {
	return &Authority{
		tokens:   tokens,
		ttl:      ttl,
		locks:    make(map[string]*sync.Mutex),
		newValue: uuid.NewString,
	}
}

// TTL is the client-visible lifetime hint (cookie Max-Age). It is not
// enforced server-side.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Issue creates a fresh token for the account, superseding any live token it
// already holds, and returns it. Issuance is serialized per account so the
// single-live-token convention holds under concurrent sign-ins. Generation
// retries up to MaxGenerateAttempts times to find a value unused by any live
// token and fails with ErrExhausted beyond that.
func (a *Authority) Issue(ctx context.Context, accountID string) (store.AuthToken, error) {
	lock := a.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := a.tokens.ListAuthTokens(ctx)
	if err != nil {
		return store.AuthToken{}, fmt.Errorf("list tokens: %w", err)
	}
	for _, token := range existing {
		if token.AccountID != accountID {
			continue
		}
		if err := a.tokens.DeleteAuthToken(ctx, token.ID); err != nil {
			return store.AuthToken{}, fmt.Errorf("supersede token: %w", err)
		}
	}

	for attempt := 0; attempt < MaxGenerateAttempts; attempt++ {
		candidate := a.newValue()

		live, err := a.tokens.ListAuthTokens(ctx)
		if err != nil {
			return store.AuthToken{}, fmt.Errorf("list tokens: %w", err)
		}
		unique := true
		for _, token := range live {
			if token.Value == candidate {
				unique = false
				break
			}
		}
		if !unique {
			continue
		}

		token := store.AuthToken{
			ID:        util.NewID("tok"),
			AccountID: accountID,
			Value:     candidate,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.tokens.SaveAuthToken(ctx, token); err != nil {
			return store.AuthToken{}, fmt.Errorf("save token: %w", err)
		}
		return token, nil
	}

	return store.AuthToken{}, ErrExhausted
}

// Resolve maps a token value to its owning account id by scanning the live
// tokens. An unknown value fails with ErrUnauthorized.
func (a *Authority) Resolve(ctx context.Context, value string) (string, error) {
	if value == "" {
		return "", ErrUnauthorized
	}
	tokens, err := a.tokens.ListAuthTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("list tokens: %w", err)
	}
	for _, token := range tokens {
		if token.Value == value {
			return token.AccountID, nil
		}
	}
	return "", ErrUnauthorized
}

// Revoke deletes every live token owned by the account.
func (a *Authority) Revoke(ctx context.Context, accountID string) error {
	lock := a.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	tokens, err := a.tokens.ListAuthTokens(ctx)
	if err != nil {
		return fmt.Errorf("list tokens: %w", err)
	}
	for _, token := range tokens {
		if token.AccountID != accountID {
			continue
		}
		if err := a.tokens.DeleteAuthToken(ctx, token.ID); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
	}
	return nil
}

func (a *Authority) accountLock(accountID string) *sync.Mutex {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	lock, ok := a.locks[accountID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	a.locks[accountID] = lock
	return lock
}
