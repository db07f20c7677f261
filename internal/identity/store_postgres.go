package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresUserStore persists users in PostgreSQL. Pure I/O; the service owns
// validation and hashing.
type PostgresUserStore struct {
	db *sql.DB
}

// NewPostgresUserStore constructs a PostgreSQL-backed user store.
func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, username, email, phone, national_id, full_name, password_hash, is_superuser, is_active, last_login_at, created_at`

func (s *PostgresUserStore) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, phone, national_id, full_name, password_hash, is_superuser, is_active, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.Phone, user.NationalID,
		user.FullName, user.PasswordHash, user.IsSuperuser, user.IsActive,
		user.LastLoginAt, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresUserStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	// Lookup precedence: username, email, phone, national ID.
	queries := []string{
		`SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`,
		`SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`,
		`SELECT ` + userColumns + ` FROM users WHERE phone = $1`,
		`SELECT ` + userColumns + ` FROM users WHERE national_id = $1`,
	}
	for _, query := range queries {
		user, err := scanUser(s.db.QueryRowContext(ctx, query, identifier))
		if err == ErrNotFound {
			continue
		}
		return user, err
	}
	return nil, ErrNotFound
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Phone,
		&user.NationalID, &user.FullName, &user.PasswordHash,
		&user.IsSuperuser, &user.IsActive, &lastLogin, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return &user, nil
}

// PostgresTokenStore persists API tokens in PostgreSQL.
type PostgresTokenStore struct {
	db *sql.DB
}

// NewPostgresTokenStore constructs a PostgreSQL-backed token store.
func NewPostgresTokenStore(db *sql.DB) *PostgresTokenStore {
	return &PostgresTokenStore{db: db}
}

func (s *PostgresTokenStore) Create(ctx context.Context, token *APIToken) error {
	query := `INSERT INTO api_tokens (key, user_id, created_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, token.Key, token.UserID, token.CreatedAt); err != nil {
		return fmt.Errorf("create api token: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) DeleteForIdleUsers(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		DELETE FROM api_tokens
		WHERE user_id IN (SELECT id FROM users WHERE last_login_at < $1)
	`
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete idle tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete idle tokens rows affected: %w", err)
	}
	return int(rows), nil
}
