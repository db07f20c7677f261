package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	derrors "casefile/pkg/domain-errors"
)

// ErrNotFound is the store-level sentinel for a missing user or token.
var ErrNotFound = errors.New("identity: not found")

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// TokenStore persists long-lived API tokens.
type TokenStore interface {
	Create(ctx context.Context, token *APIToken) error
	// DeleteForIdleUsers removes tokens belonging to users whose last login
	// is before cutoff. Returns the number of tokens removed.
	DeleteForIdleUsers(ctx context.Context, cutoff time.Time) (int, error)
}

// CreateUserRequest carries the required identity fields.
type CreateUserRequest struct {
	Username    string
	Email       string
	Phone       string
	NationalID  string
	FullName    string
	Password    string
	IsSuperuser bool
}

// Service owns user creation and principal resolution.
type Service struct {
	users  UserStore
	tokens TokenStore
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(users UserStore, tokens TokenStore, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser validates the identity fields, hashes the password with bcrypt,
// and persists the user.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	for field, value := range map[string]string{
		"username":    req.Username,
		"email":       req.Email,
		"phone":       req.Phone,
		"national_id": req.NationalID,
		"full_name":   req.FullName,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, derrors.Newf(derrors.CodeValidation, "the %s field is required", field)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to hash password")
	}

	user := &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		NationalID:   strings.TrimSpace(req.NationalID),
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hash),
		IsSuperuser:  req.IsSuperuser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create user")
	}
	return user, nil
}

// Resolve loads the principal for an authenticated user ID, as set by the
// auth middleware.
func (s *Service) Resolve(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid principal")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, derrors.New(derrors.CodeUnauthorized, "unknown principal")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load principal")
	}
	if !user.IsActive {
		return nil, derrors.New(derrors.CodeUnauthorized, "principal is inactive")
	}
	return user, nil
}

// FindByIdentifier resolves a user by username, email, phone or national ID,
// in that precedence order.
func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, derrors.New(derrors.CodeValidation, "identifier is required")
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "user not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to find user")
	}
	return user, nil
}

// CheckPassword verifies a cleartext password against the stored hash.
func (s *Service) CheckPassword(user *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// ExpireIdleTokens removes API tokens for users idle longer than maxIdle.
// Idempotent; invoked by the scheduled sweeper.
func (s *Service) ExpireIdleTokens(ctx context.Context, now time.Time, maxIdle time.Duration) (int, error) {
	count, err := s.tokens.DeleteForIdleUsers(ctx, now.Add(-maxIdle))
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "failed to expire idle tokens")
	}
	if s.logger != nil && count > 0 {
		s.logger.InfoContext(ctx, "expired idle tokens", "count", count)
	}
	return count, nil
}
