// Package store persists cases, participants, complaints and scene reports.
// Stores are pure I/O; workflow rules live in the service layer.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"casefile/internal/cases/models"
	"casefile/internal/platform/postgres"
)

var (
	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("cases store: not found")
	// ErrDuplicate marks a uniqueness constraint violation.
	ErrDuplicate = errors.New("cases store: duplicate")
)

// Filter narrows case listings.
type Filter struct {
	Status     models.Status
	SourceType models.SourceType
	Level      models.Level
	Search     string
}

// Store is the persistence boundary for the case workflow. Multi-step
// mutations run inside InTx; the ForUpdate getters lock the row for the
// remainder of the transaction.
type Store interface {
	// InTx runs fn within one transaction. The Store passed to fn routes
	// all operations through that transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	CreateCase(ctx context.Context, c *models.Case) error
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	// GetCaseForUpdate acquires a row-level exclusive lock; only
	// meaningful inside InTx.
	GetCaseForUpdate(ctx context.Context, id uuid.UUID) (*models.Case, error)
	UpdateCase(ctx context.Context, c *models.Case) error
	ListCases(ctx context.Context, filter Filter) ([]*models.Case, error)

	CreateParticipant(ctx context.Context, p *models.CaseParticipant) error
	GetParticipant(ctx context.Context, id uuid.UUID) (*models.CaseParticipant, error)
	ListParticipants(ctx context.Context, caseID uuid.UUID) ([]*models.CaseParticipant, error)

	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, c *models.Complaint) error
	ListComplaints(ctx context.Context, complainantID *uuid.UUID) ([]*models.Complaint, error)

	GetValidationCounter(ctx context.Context, complaintID uuid.UUID) (*models.ValidationCounter, error)
	UpsertValidationCounter(ctx context.Context, counter *models.ValidationCounter) error

	AppendReview(ctx context.Context, review *models.ComplaintReview) error
	ListReviews(ctx context.Context, complaintID uuid.UUID) ([]*models.ComplaintReview, error)

	CreateSceneReport(ctx context.Context, report *models.SceneCaseReport) error
	GetSceneReportByCase(ctx context.Context, caseID uuid.UUID) (*models.SceneCaseReport, error)
	UpdateSceneReport(ctx context.Context, report *models.SceneCaseReport) error
}

// Sibling stores (verdicts, wanted entries) must write through the same
// transaction as the case mutation that triggers them. The Store an InTx
// callback receives implements one of these two: the SQL store hands out
// its transaction querier, the memory store collects compensations to run
// if the callback fails.

// TxQuerier exposes the transaction a tx-scoped SQL store runs on.
type TxQuerier interface {
	Querier() postgres.DBTX
}

// TxRollbackNotifier registers an undo with a tx-scoped memory store.
// Undos run in reverse order when the transaction callback errors.
type TxRollbackNotifier interface {
	OnRollback(undo func())
}
