// Package memory holds in-process stores with the same uniqueness rules as
// the PostgreSQL schema. They back STORAGE_DRIVER=memory and the tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/idcard-backend/internal/model"
	"github.com/stemsi/idcard-backend/internal/repository"
)

// AdminStore is an in-memory credential store.
type AdminStore struct {
	mu     sync.RWMutex
	nextID int64
	admins map[int64]*model.Admin
	now    func() time.Time
}

// NewAdminStore creates an empty AdminStore.
func NewAdminStore() *AdminStore {
	return &AdminStore{admins: make(map[int64]*model.Admin), now: time.Now}
}

func (s *AdminStore) find(match func(*model.Admin) bool) (*model.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if match(a) {
			return cloneAdmin(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByUsername retrieves an admin by exact username.
func (s *AdminStore) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	return s.find(func(a *model.Admin) bool { return a.Username == username })
}

// GetByEmail retrieves an admin by exact email.
func (s *AdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	return s.find(func(a *model.Admin) bool { return a.Email == email })
}

// GetByIdentifier matches the username first, then the email.
func (s *AdminStore) GetByIdentifier(ctx context.Context, identifier string) (*model.Admin, error) {
	if a, err := s.GetByUsername(ctx, identifier); err == nil {
		return a, nil
	}
	return s.GetByEmail(ctx, identifier)
}

// GetBySessionToken retrieves the admin holding token.
func (s *AdminStore) GetBySessionToken(_ context.Context, token string) (*model.Admin, error) {
	return s.find(func(a *model.Admin) bool { return a.SessionToken != nil && *a.SessionToken == token })
}

// Create inserts a new admin, enforcing unique username and email.
func (s *AdminStore) Create(_ context.Context, a *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.admins {
		if existing.Username == a.Username {
			return &repository.DuplicateKeyError{Constraint: repository.ConstraintAdminUsername}
		}
		if existing.Email == a.Email {
			return &repository.DuplicateKeyError{Constraint: repository.ConstraintAdminEmail}
		}
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = s.now()
	s.admins[a.ID] = cloneAdmin(a)
	return nil
}

// UpdatePassword replaces the password hash.
func (s *AdminStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return s.mutate(id, func(a *model.Admin) error {
		a.PasswordHash = passwordHash
		return nil
	})
}

// ResetPassword replaces the password hash and clears the reset code.
func (s *AdminStore) ResetPassword(_ context.Context, id int64, passwordHash string) error {
	return s.mutate(id, func(a *model.Admin) error {
		a.PasswordHash = passwordHash
		a.OTPCode, a.OTPExpiresAt = nil, nil
		return nil
	})
}

// SetOTP stores a reset code and its expiry, replacing any earlier one.
func (s *AdminStore) SetOTP(_ context.Context, id int64, code string, expiresAt time.Time) error {
	return s.mutate(id, func(a *model.Admin) error {
		a.OTPCode, a.OTPExpiresAt = &code, &expiresAt
		return nil
	})
}

// SetSession stores a new session token. Tokens are unique across admins.
func (s *AdminStore) SetSession(_ context.Context, id int64, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for otherID, other := range s.admins {
		if otherID != id && other.SessionToken != nil && *other.SessionToken == token {
			return &repository.DuplicateKeyError{Constraint: repository.ConstraintAdminSession}
		}
	}
	a, ok := s.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.SessionToken, a.SessionExpiresAt = &token, &expiresAt
	return nil
}

// ExtendSession moves the expiry of the current session.
func (s *AdminStore) ExtendSession(_ context.Context, id int64, expiresAt time.Time) error {
	return s.mutate(id, func(a *model.Admin) error {
		if a.SessionToken == nil {
			return repository.ErrNotFound
		}
		a.SessionExpiresAt = &expiresAt
		return nil
	})
}

// ClearSession drops the session token and its expiry.
func (s *AdminStore) ClearSession(_ context.Context, id int64) error {
	return s.mutate(id, func(a *model.Admin) error {
		a.SessionToken, a.SessionExpiresAt = nil, nil
		return nil
	})
}

// Count returns the number of stored admins.
func (s *AdminStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.admins)
}

func (s *AdminStore) mutate(id int64, fn func(*model.Admin) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	return fn(a)
}

func cloneAdmin(a *model.Admin) *model.Admin {
	c := *a
	c.FullName = cloneString(a.FullName)
	c.OTPCode = cloneString(a.OTPCode)
	c.SessionToken = cloneString(a.SessionToken)
	c.OTPExpiresAt = cloneTime(a.OTPExpiresAt)
	c.SessionExpiresAt = cloneTime(a.SessionExpiresAt)
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
