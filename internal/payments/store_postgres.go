package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const transactionColumns = `id, case_id, participant_id, amount_rials, gateway_name,
	gateway_ref, status, callback_data, verified_at, created_by, created_at, updated_at`

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) Create(ctx context.Context, tx *Transaction) error {
	callbackData, err := json.Marshal(tx.CallbackData)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)`,
		tx.ID, tx.CaseID, tx.ParticipantID, tx.AmountRials, tx.GatewayName,
		tx.GatewayRef, tx.Status, callbackData, tx.VerifiedAt, tx.CreatedBy,
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func scanTransaction(row interface{ Scan(...any) error }) (*Transaction, error) {
	var tx Transaction
	var gatewayRef sql.NullString
	var callbackData []byte
	err := row.Scan(&tx.ID, &tx.CaseID, &tx.ParticipantID, &tx.AmountRials,
		&tx.GatewayName, &gatewayRef, &tx.Status, &callbackData,
		&tx.VerifiedAt, &tx.CreatedBy, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	tx.GatewayRef = gatewayRef.String
	if len(callbackData) > 0 {
		if err := json.Unmarshal(callbackData, &tx.CallbackData); err != nil {
			return nil, err
		}
	}
	return &tx, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM payment_transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *PostgresStore) Update(ctx context.Context, tx *Transaction) error {
	callbackData, err := json.Marshal(tx.CallbackData)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE payment_transactions
		SET gateway_ref = NULLIF($2, ''), status = $3, callback_data = $4,
			verified_at = $5, updated_at = $6
		WHERE id = $1`,
		tx.ID, tx.GatewayRef, tx.Status, callbackData, tx.VerifiedAt, tx.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM payment_transactions
		WHERE case_id = $1 ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FailPendingOlderThan(ctx context.Context, cutoff, failedAt time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payment_transactions
		SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at < $4`,
		StatusFailed, failedAt, StatusPending, cutoff,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
