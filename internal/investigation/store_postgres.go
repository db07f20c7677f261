package investigation

import (
	"context"
	"database/sql"
	"errors"

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

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, a *SuspectAssessment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suspect_assessments (id, case_id, participant_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.CaseID, a.ParticipantID, a.CreatedBy, a.CreatedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id uuid.UUID) (*SuspectAssessment, error) {
	var a SuspectAssessment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, participant_id, created_by, created_at
		FROM suspect_assessments WHERE id = $1`, id,
	).Scan(&a.ID, &a.CaseID, &a.ParticipantID, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAssessmentsByCase(ctx context.Context, caseID uuid.UUID) ([]*SuspectAssessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, participant_id, created_by, created_at
		FROM suspect_assessments WHERE case_id = $1 ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SuspectAssessment
	for rows.Next() {
		var a SuspectAssessment
		if err := rows.Scan(&a.ID, &a.CaseID, &a.ParticipantID, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendScore(ctx context.Context, entry *ScoreEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessment_score_entries (id, assessment_id, scored_by, role_key, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.AssessmentID, entry.ScoredBy, entry.RoleKey, entry.Score, entry.CreatedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) ListScores(ctx context.Context, assessmentID uuid.UUID) ([]*ScoreEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, assessment_id, scored_by, role_key, score, created_at
		FROM assessment_score_entries WHERE assessment_id = $1 ORDER BY created_at ASC`,
		assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ScoreEntry
	for rows.Next() {
		var entry ScoreEntry
		if err := rows.Scan(&entry.ID, &entry.AssessmentID, &entry.ScoredBy,
			&entry.RoleKey, &entry.Score, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateArrestOrder(ctx context.Context, order *ArrestOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO arrest_orders (id, case_id, participant_id, issued_by, reason, status, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.CaseID, order.ParticipantID, order.IssuedBy,
		order.Reason, order.Status, order.IssuedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) GetArrestOrder(ctx context.Context, id uuid.UUID) (*ArrestOrder, error) {
	var order ArrestOrder
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, participant_id, issued_by, reason, status, issued_at
		FROM arrest_orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.CaseID, &order.ParticipantID, &order.IssuedBy,
		&order.Reason, &order.Status, &order.IssuedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &order, nil
}

func (s *PostgresStore) UpdateArrestOrder(ctx context.Context, order *ArrestOrder) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE arrest_orders SET status = $2, reason = $3 WHERE id = $1`,
		order.ID, order.Status, order.Reason)
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

func (s *PostgresStore) ListArrestOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*ArrestOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, participant_id, issued_by, reason, status, issued_at
		FROM arrest_orders WHERE case_id = $1 ORDER BY issued_at DESC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ArrestOrder
	for rows.Next() {
		var order ArrestOrder
		if err := rows.Scan(&order.ID, &order.CaseID, &order.ParticipantID,
			&order.IssuedBy, &order.Reason, &order.Status, &order.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, &order)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interrogation_orders
			(id, case_id, participant_id, ordered_by, scheduled_at, reason, status, ordered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.CaseID, order.ParticipantID, order.OrderedBy,
		order.ScheduledAt, order.Reason, order.Status, order.OrderedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) GetInterrogationOrder(ctx context.Context, id uuid.UUID) (*InterrogationOrder, error) {
	var order InterrogationOrder
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, participant_id, ordered_by, scheduled_at, reason, status, ordered_at
		FROM interrogation_orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.CaseID, &order.ParticipantID, &order.OrderedBy,
		&order.ScheduledAt, &order.Reason, &order.Status, &order.OrderedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &order, nil
}

func (s *PostgresStore) UpdateInterrogationOrder(ctx context.Context, order *InterrogationOrder) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE interrogation_orders SET status = $2, scheduled_at = $3, reason = $4
		WHERE id = $1`,
		order.ID, order.Status, order.ScheduledAt, order.Reason)
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

func (s *PostgresStore) ListInterrogationOrdersByCase(ctx context.Context, caseID uuid.UUID) ([]*InterrogationOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, participant_id, ordered_by, scheduled_at, reason, status, ordered_at
		FROM interrogation_orders WHERE case_id = $1 ORDER BY ordered_at DESC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*InterrogationOrder
	for rows.Next() {
		var order InterrogationOrder
		if err := rows.Scan(&order.ID, &order.CaseID, &order.ParticipantID,
			&order.OrderedBy, &order.ScheduledAt, &order.Reason,
			&order.Status, &order.OrderedAt); err != nil {
			return nil, err
		}
		out = append(out, &order)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateReasoning(ctx context.Context, r *ReasoningSubmission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reasoning_submissions
			(id, case_reference, title, narrative, submitted_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.CaseReference, r.Title, r.Narrative, r.SubmittedBy,
		r.Status, r.CreatedAt, r.UpdatedAt,
	)
	return mapErr(err)
}

func (s *PostgresStore) GetReasoning(ctx context.Context, id uuid.UUID) (*ReasoningSubmission, error) {
	var r ReasoningSubmission
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_reference, title, narrative, submitted_by, status, created_at, updated_at
		FROM reasoning_submissions WHERE id = $1`, id,
	).Scan(&r.ID, &r.CaseReference, &r.Title, &r.Narrative, &r.SubmittedBy,
		&r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *PostgresStore) UpdateReasoning(ctx context.Context, r *ReasoningSubmission) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reasoning_submissions SET status = $2, updated_at = $3 WHERE id = $1`,
		r.ID, r.Status, r.UpdatedAt)
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

func (s *PostgresStore) CreateReasoningApproval(ctx context.Context, a *ReasoningApproval) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reasoning_approvals (id, reasoning_id, decided_by, decision, justification, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ReasoningID, a.DecidedBy, a.Decision, a.Justification, a.DecidedAt,
	)
	return mapErr(err)
}
