package access

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore resolves role keys and permission codes from the relational
// schema. Pure I/O; the Authority owns the matching semantics.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed access store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RoleKeysForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT lower(r.key)
		FROM role_assignments ra
		JOIN roles r ON r.id = ra.role_id
		WHERE ra.user_id = $1
		  AND r.is_active
		  AND r.key IS NOT NULL
		  AND r.key <> ''
	`
	return collectStrings(s.db.QueryContext(ctx, query, userID))
}

func (s *PostgresStore) PermissionCodesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.code
		FROM role_assignments ra
		JOIN roles r ON r.id = ra.role_id AND r.is_active
		JOIN role_grants rg ON rg.role_id = r.id
		JOIN permissions p ON p.id = rg.permission_id
		WHERE ra.user_id = $1
	`
	return collectStrings(s.db.QueryContext(ctx, query, userID))
}

func (s *PostgresStore) AllPermissionCodes(ctx context.Context) ([]string, error) {
	return collectStrings(s.db.QueryContext(ctx, `SELECT code FROM permissions`))
}

// UpsertPermission inserts a permission; rerunning with an existing code
// leaves the stored row alone.
func (s *PostgresStore) UpsertPermission(ctx context.Context, p *Permission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permissions (id, code, resource, action, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING`,
		p.ID, p.Code, p.Resource, p.Action, p.Name,
	)
	if err != nil {
		return fmt.Errorf("upsert permission %s: %w", p.Code, err)
	}
	return nil
}

func collectStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
