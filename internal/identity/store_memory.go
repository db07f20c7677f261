package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUserStore is the in-memory UserStore used by service tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*User)}
}

func (s *MemoryUserStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryUserStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryUserStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match := func(pick func(*User) string, fold bool) *User {
		for _, user := range s.users {
			value := pick(user)
			if fold && strings.EqualFold(value, identifier) {
				return user
			}
			if !fold && value == identifier {
				return user
			}
		}
		return nil
	}
	// Same precedence as the SQL store: username, email, phone, national ID.
	for _, candidate := range []*User{
		match(func(u *User) string { return u.Username }, true),
		match(func(u *User) string { return u.Email }, true),
		match(func(u *User) string { return u.Phone }, false),
		match(func(u *User) string { return u.NationalID }, false),
	} {
		if candidate != nil {
			copied := *candidate
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// MemoryTokenStore is the in-memory TokenStore used by service tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*APIToken
	users  *MemoryUserStore
}

// NewMemoryTokenStore creates a token store that consults users for idle
// cutoff checks.
func NewMemoryTokenStore(users *MemoryUserStore) *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*APIToken), users: users}
}

func (s *MemoryTokenStore) Create(ctx context.Context, token *APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.tokens[token.Key] = &copied
	return nil
}

func (s *MemoryTokenStore) DeleteForIdleUsers(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key, token := range s.tokens {
		user, err := s.users.FindByID(ctx, token.UserID)
		if err != nil {
			continue
		}
		if user.LastLoginAt != nil && user.LastLoginAt.Before(cutoff) {
			delete(s.tokens, key)
			count++
		}
	}
	return count, nil
}
