package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"casefile/internal/cases/models"
	"casefile/internal/platform/postgres"
)

// Postgres implements Store on PostgreSQL.
type Postgres struct {
	db *sql.DB
	q  postgres.DBTX
}

// NewPostgres creates a Postgres-backed case store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, q: db}
}

func (s *Postgres) InTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		// Already inside a transaction; nest flatly.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Postgres{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Querier exposes the connection or transaction this store runs on so
// sibling stores can join it.
func (s *Postgres) Querier() postgres.DBTX { return s.q }

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

const caseColumns = `id, case_number, title, summary, level, source_type, status, priority,
	assigned_to, assigned_by, assigned_role_key, assigned_at, created_by,
	submitted_at, under_review_at, investigation_started_at, suspect_assessed_at,
	referral_ready_at, trial_started_at, closed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var c models.Case
	var assignedRoleKey sql.NullString
	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.Title, &c.Summary, &c.Level, &c.SourceType,
		&c.Status, &c.Priority,
		&c.AssignedTo, &c.AssignedBy, &assignedRoleKey, &c.AssignedAt, &c.CreatedBy,
		&c.SubmittedAt, &c.UnderReviewAt, &c.InvestigationStartedAt,
		&c.SuspectAssessedAt, &c.ReferralReadyAt, &c.TrialStartedAt, &c.ClosedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	c.AssignedRoleKey = assignedRoleKey.String
	return &c, nil
}

func (s *Postgres) CreateCase(ctx context.Context, c *models.Case) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO cases (`+caseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		c.ID, c.CaseNumber, c.Title, c.Summary, c.Level, c.SourceType,
		c.Status, c.Priority,
		c.AssignedTo, c.AssignedBy, c.AssignedRoleKey, c.AssignedAt, c.CreatedBy,
		c.SubmittedAt, c.UnderReviewAt, c.InvestigationStartedAt,
		c.SuspectAssessedAt, c.ReferralReadyAt, c.TrialStartedAt, c.ClosedAt,
		c.CreatedAt, c.UpdatedAt,
	)
	return mapErr(err)
}

func (s *Postgres) GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, id)
	return scanCase(row)
}

func (s *Postgres) GetCaseForUpdate(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1 FOR UPDATE`, id)
	return scanCase(row)
}

func (s *Postgres) UpdateCase(ctx context.Context, c *models.Case) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE cases SET
			title = $2, summary = $3, level = $4, status = $5, priority = $6,
			assigned_to = $7, assigned_by = $8, assigned_role_key = NULLIF($9, ''),
			assigned_at = $10,
			submitted_at = $11, under_review_at = $12, investigation_started_at = $13,
			suspect_assessed_at = $14, referral_ready_at = $15, trial_started_at = $16,
			closed_at = $17, updated_at = $18
		WHERE id = $1`,
		c.ID, c.Title, c.Summary, c.Level, c.Status, c.Priority,
		c.AssignedTo, c.AssignedBy, c.AssignedRoleKey, c.AssignedAt,
		c.SubmittedAt, c.UnderReviewAt, c.InvestigationStartedAt,
		c.SuspectAssessedAt, c.ReferralReadyAt, c.TrialStartedAt,
		c.ClosedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListCases(ctx context.Context, filter Filter) ([]*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.SourceType != "" {
		add("source_type = $%d", filter.SourceType)
	}
	if filter.Level != "" {
		add("level = $%d", filter.Level)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE $%d OR summary ILIKE $%d OR case_number ILIKE $%d)", n, n, n))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateParticipant(ctx context.Context, p *models.CaseParticipant) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO case_participants
			(id, case_id, user_id, participant_kind, role_in_case,
			 full_name, phone, national_id, notes, added_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11)`,
		p.ID, p.CaseID, p.UserID, p.ParticipantKind, p.RoleInCase,
		p.FullName, p.Phone, p.NationalID, p.Notes, p.AddedBy, p.CreatedAt,
	)
	return mapErr(err)
}

func scanParticipant(row rowScanner) (*models.CaseParticipant, error) {
	var p models.CaseParticipant
	var nationalID sql.NullString
	err := row.Scan(
		&p.ID, &p.CaseID, &p.UserID, &p.ParticipantKind, &p.RoleInCase,
		&p.FullName, &p.Phone, &nationalID, &p.Notes, &p.AddedBy, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	p.NationalID = nationalID.String
	return &p, nil
}

const participantColumns = `id, case_id, user_id, participant_kind, role_in_case,
	full_name, phone, national_id, notes, added_by, created_at`

func (s *Postgres) GetParticipant(ctx context.Context, id uuid.UUID) (*models.CaseParticipant, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM case_participants WHERE id = $1`, id)
	return scanParticipant(row)
}

func (s *Postgres) ListParticipants(ctx context.Context, caseID uuid.UUID) ([]*models.CaseParticipant, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM case_participants
		 WHERE case_id = $1 ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*models.CaseParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const complaintColumns = `id, complainant_id, case_id, description, status,
	rejection_reason, reviewed_at, validated_at, invalidated_at, created_at, updated_at`

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	var reason sql.NullString
	err := row.Scan(
		&c.ID, &c.ComplainantID, &c.CaseID, &c.Description, &c.Status,
		&reason, &c.ReviewedAt, &c.ValidatedAt, &c.InvalidatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	c.RejectionReason = reason.String
	return &c, nil
}

func (s *Postgres) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11)`,
		c.ID, c.ComplainantID, c.CaseID, c.Description, c.Status,
		c.RejectionReason, c.ReviewedAt, c.ValidatedAt, c.InvalidatedAt,
		c.CreatedAt, c.UpdatedAt,
	)
	return mapErr(err)
}

func (s *Postgres) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	return scanComplaint(row)
}

func (s *Postgres) GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1 FOR UPDATE`, id)
	return scanComplaint(row)
}

func (s *Postgres) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE complaints SET
			case_id = $2, description = $3, status = $4,
			rejection_reason = NULLIF($5, ''), reviewed_at = $6,
			validated_at = $7, invalidated_at = $8, updated_at = $9
		WHERE id = $1`,
		c.ID, c.CaseID, c.Description, c.Status,
		c.RejectionReason, c.ReviewedAt, c.ValidatedAt, c.InvalidatedAt, c.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return checkAffected(res)
}

func (s *Postgres) ListComplaints(ctx context.Context, complainantID *uuid.UUID) ([]*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	var args []any
	if complainantID != nil {
		query += ` WHERE complainant_id = $1`
		args = append(args, *complainantID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) GetValidationCounter(ctx context.Context, complaintID uuid.UUID) (*models.ValidationCounter, error) {
	var counter models.ValidationCounter
	var reason sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT complaint_id, invalid_attempt_count, last_rejection_reason, updated_at
		FROM complaint_validation_counters WHERE complaint_id = $1`,
		complaintID,
	).Scan(&counter.ComplaintID, &counter.InvalidAttemptCount, &reason, &counter.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	counter.LastRejectionReason = reason.String
	return &counter, nil
}

func (s *Postgres) UpsertValidationCounter(ctx context.Context, counter *models.ValidationCounter) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO complaint_validation_counters
			(complaint_id, invalid_attempt_count, last_rejection_reason, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), now())
		ON CONFLICT (complaint_id) DO UPDATE SET
			invalid_attempt_count = EXCLUDED.invalid_attempt_count,
			last_rejection_reason = EXCLUDED.last_rejection_reason,
			updated_at = now()`,
		counter.ComplaintID, counter.InvalidAttemptCount, counter.LastRejectionReason,
	)
	return mapErr(err)
}

func (s *Postgres) AppendReview(ctx context.Context, review *models.ComplaintReview) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO complaint_reviews
			(id, complaint_id, reviewer_id, decision, rejection_reason, reviewed_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		review.ID, review.ComplaintID, review.ReviewerID, review.Decision,
		review.RejectionReason, review.ReviewedAt,
	)
	return mapErr(err)
}

func (s *Postgres) ListReviews(ctx context.Context, complaintID uuid.UUID) ([]*models.ComplaintReview, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, complaint_id, reviewer_id, decision, rejection_reason, reviewed_at
		FROM complaint_reviews WHERE complaint_id = $1 ORDER BY reviewed_at ASC`,
		complaintID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []*models.ComplaintReview
	for rows.Next() {
		var review models.ComplaintReview
		var reason sql.NullString
		if err := rows.Scan(&review.ID, &review.ComplaintID, &review.ReviewerID,
			&review.Decision, &reason, &review.ReviewedAt); err != nil {
			return nil, err
		}
		review.RejectionReason = reason.String
		out = append(out, &review)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateSceneReport(ctx context.Context, report *models.SceneCaseReport) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO scene_case_reports
			(id, case_id, reported_by, scene_occurred_at,
			 superior_approved_by, superior_approved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID, report.CaseID, report.ReportedBy, report.SceneOccurredAt,
		report.SuperiorApprovedBy, report.SuperiorApprovedAt,
		report.CreatedAt, report.UpdatedAt,
	)
	return mapErr(err)
}

func (s *Postgres) GetSceneReportByCase(ctx context.Context, caseID uuid.UUID) (*models.SceneCaseReport, error) {
	var report models.SceneCaseReport
	err := s.q.QueryRowContext(ctx, `
		SELECT id, case_id, reported_by, scene_occurred_at,
			superior_approved_by, superior_approved_at, created_at, updated_at
		FROM scene_case_reports WHERE case_id = $1`,
		caseID,
	).Scan(&report.ID, &report.CaseID, &report.ReportedBy, &report.SceneOccurredAt,
		&report.SuperiorApprovedBy, &report.SuperiorApprovedAt,
		&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &report, nil
}

func (s *Postgres) UpdateSceneReport(ctx context.Context, report *models.SceneCaseReport) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE scene_case_reports SET
			superior_approved_by = $2, superior_approved_at = $3, updated_at = $4
		WHERE id = $1`,
		report.ID, report.SuperiorApprovedBy, report.SuperiorApprovedAt, report.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	return checkAffected(res)
}
