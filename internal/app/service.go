package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"draftbook/api/internal/authpw"
	"draftbook/api/internal/config"
	"draftbook/api/internal/content"
	"draftbook/api/internal/paths"
	"draftbook/api/internal/session"
	"draftbook/api/internal/store"
	"draftbook/api/internal/util"
)

// metadataStore is the slice of the store layer the coordinators consume.
type metadataStore interface {
	ListAccounts(ctx context.Context) ([]store.Account, error)
	SaveAccount(ctx context.Context, account store.Account) error

	ListWorks(ctx context.Context) ([]store.Work, error)
	SaveWork(ctx context.Context, work store.Work) error
	DeleteWork(ctx context.Context, id string) error

	ListChapters(ctx context.Context) ([]store.Chapter, error)
	SaveChapter(ctx context.Context, chapter store.Chapter) error
	DeleteChapter(ctx context.Context, id string) error

	ListNoteCategories(ctx context.Context) ([]store.NoteCategory, error)
	SaveNoteCategory(ctx context.Context, category store.NoteCategory) error
	DeleteNoteCategory(ctx context.Context, id string) error

	Ping(ctx context.Context) error
}

// Service coordinates the metadata store and the mirrored content tree.
// Mutations on a work take that work's lock so the two tiers cannot be
// interleaved by concurrent requests.
type Service struct {
	cfg       config.Config
	store     metadataStore
	content   *content.Store
	paths     *paths.Builder
	authority *session.Authority
	accounts  *authpw.Service

	lockMu    sync.Mutex
	workLocks map[string]*sync.Mutex
}

func New(cfg config.Config, metadata metadataStore, contentStore *content.Store, pathBuilder *paths.Builder, authority *session.Authority, accounts *authpw.Service) *Service {
	return &Service{
		cfg:       cfg,
		store:     metadata,
		content:   contentStore,
		paths:     pathBuilder,
		authority: authority,
		accounts:  accounts,
		workLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) TokenTTL() int {
	return int(s.authority.TTL().Seconds())
}

func (s *Service) workLock(workID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.workLocks[workID]
	if !ok {
		mu = &sync.Mutex{}
		s.workLocks[workID] = mu
	}
	return mu
}

// Register creates an account and immediately opens a session for it.
func (s *Service) Register(ctx context.Context, username, password string) (store.Account, store.AuthToken, error) {
	account, err := s.accounts.Register(ctx, username, password)
	if err != nil {
		if errors.Is(err, authpw.ErrUsernameTaken) {
			return store.Account{}, store.AuthToken{}, errAlreadyExists("username is taken")
		}
		log.Printf("app: register %q: %v", username, err)
		return store.Account{}, store.AuthToken{}, errIOFailure("could not create account")
	}
	token, err := s.issueToken(ctx, account.ID)
	if err != nil {
		return store.Account{}, store.AuthToken{}, err
	}
	return account, token, nil
}

// Authenticate verifies credentials and rotates the account's session token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (store.Account, store.AuthToken, error) {
	account, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) {
			return store.Account{}, store.AuthToken{}, errUnauthorized()
		}
		log.Printf("app: authenticate %q: %v", username, err)
		return store.Account{}, store.AuthToken{}, errIOFailure("could not authenticate")
	}
	token, err := s.issueToken(ctx, account.ID)
	if err != nil {
		return store.Account{}, store.AuthToken{}, err
	}
	return account, token, nil
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	exists, err := s.accounts.Exists(ctx, username)
	if err != nil {
		log.Printf("app: lookup username %q: %v", username, err)
		return false, errIOFailure("could not check username")
	}
	return exists, nil
}

func (s *Service) issueToken(ctx context.Context, accountID string) (store.AuthToken, error) {
	token, err := s.authority.Issue(ctx, accountID)
	if err != nil {
		if errors.Is(err, session.ErrExhausted) {
			return store.AuthToken{}, errTokenExhausted()
		}
		log.Printf("app: issue token for %s: %v", accountID, err)
		return store.AuthToken{}, errIOFailure("could not open a session")
	}
	return token, nil
}

// AccountByToken resolves a session token to its owning account. Any failure
// collapses to UNAUTHORIZED so callers cannot probe for token validity.
func (s *Service) AccountByToken(ctx context.Context, tokenValue string) (store.Account, error) {
	accountID, err := s.authority.Resolve(ctx, tokenValue)
	if err != nil {
		return store.Account{}, errUnauthorized()
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		log.Printf("app: list accounts: %v", err)
		return store.Account{}, errUnauthorized()
	}
	for _, account := range accounts {
		if account.ID == accountID {
			return account, nil
		}
	}
	return store.Account{}, errUnauthorized()
}

// WorkByResource finds the account's work whose derived resource id matches
// target.
func (s *Service) WorkByResource(ctx context.Context, account store.Account, target string) (store.Work, error) {
	works, err := s.store.ListWorks(ctx)
	if err != nil {
		log.Printf("app: list works: %v", err)
		return store.Work{}, errIOFailure("could not load works")
	}
	for _, work := range works {
		if work.AccountID == account.ID && util.ResourceID(work.Title) == target {
			return work, nil
		}
	}
	return store.Work{}, errNotFound("work not found")
}
