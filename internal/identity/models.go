package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated principal. Every one of username, email, phone
// and national_id is unique; full_name is required at creation.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Phone        string
	NationalID   string
	FullName     string
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// IsAuthenticated reports whether u represents a real, active principal.
// A nil user is the anonymous caller.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != uuid.Nil && u.IsActive
}

// APIToken is a long-lived opaque token issued to integrations. Kept only
// so the idle-token sweep has something to expire; request auth is JWT.
type APIToken struct {
	Key       string
	UserID    uuid.UUID
	CreatedAt time.Time
}
