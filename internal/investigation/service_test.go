package investigation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/access"
	casemodels "casefile/internal/cases/models"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/timeline"
	derrors "casefile/pkg/domain-errors"
)

type fixture struct {
	svc    *Service
	cases  *casestore.Memory
	access *access.MemoryStore
	users  *identity.MemoryUserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cases := casestore.NewMemory()
	accessStore := access.NewMemoryStore()
	users := identity.NewMemoryUserStore()
	idSvc := identity.New(users, identity.NewMemoryTokenStore(users))
	svc := New(NewMemoryStore(), cases, access.NewAuthority(accessStore),
		WithUserResolver(idSvc))
	return &fixture{svc: svc, cases: cases, access: accessStore, users: users}
}

func (f *fixture) userWith(t *testing.T, keys ...string) *identity.User {
	t.Helper()
	user := &identity.User{
		ID:       uuid.New(),
		Username: uuid.NewString()[:8],
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	for _, key := range keys {
		role := f.access.AddRole(key, key, true)
		f.access.Assign(user.ID, role.ID, uuid.New())
	}
	return user
}

func (f *fixture) seedSuspect(t *testing.T, status casemodels.Status) (*casemodels.Case, *casemodels.CaseParticipant) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	c := &casemodels.Case{
		ID:         uuid.New(),
		CaseNumber: casemodels.NewCaseNumber(),
		Title:      "seeded",
		Level:      casemodels.Level2,
		SourceType: casemodels.SourceComplaint,
		Status:     status,
		Priority:   casemodels.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.cases.CreateCase(ctx, c))
	p := &casemodels.CaseParticipant{
		ID:              uuid.New(),
		CaseID:          c.ID,
		ParticipantKind: casemodels.KindCivilian,
		RoleInCase:      casemodels.RoleSuspect,
		FullName:        "R. Ahmadi",
		NationalID:      uuid.NewString()[:10],
		CreatedAt:       now,
	}
	require.NoError(t, f.cases.CreateParticipant(ctx, p))
	return c, p
}

func TestCreateAssessment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	detective := f.userWith(t, access.RoleKeyDetective)
	c, suspect := f.seedSuspect(t, casemodels.StatusSuspectAssessment)

	t.Run("officer rank is rejected", func(t *testing.T) {
		officer := f.userWith(t, access.RoleKeyPoliceOfficer)
		_, err := f.svc.CreateAssessment(ctx, officer, c.ID, suspect.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("non-suspect participant is rejected", func(t *testing.T) {
		witness := &casemodels.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			ParticipantKind: casemodels.KindCivilian,
			RoleInCase:      casemodels.RoleWitness,
			FullName:        "W",
			CreatedAt:       time.Now().UTC(),
		}
		require.NoError(t, f.cases.CreateParticipant(ctx, witness))
		_, err := f.svc.CreateAssessment(ctx, detective, c.ID, witness.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("duplicate assessment is refused", func(t *testing.T) {
		_, err := f.svc.CreateAssessment(ctx, detective, c.ID, suspect.ID)
		require.NoError(t, err)
		_, err = f.svc.CreateAssessment(ctx, detective, c.ID, suspect.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})
}

func TestSubmitScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	detective := f.userWith(t, access.RoleKeyDetective)
	sergeant := f.userWith(t, access.RoleKeySergeant)
	c, suspect := f.seedSuspect(t, casemodels.StatusSuspectAssessment)
	assessment, err := f.svc.CreateAssessment(ctx, detective, c.ID, suspect.ID)
	require.NoError(t, err)

	t.Run("score bounds", func(t *testing.T) {
		_, err := f.svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeyDetective, 0)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
		_, err = f.svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeyDetective, 11)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("no cross-role submission", func(t *testing.T) {
		_, err := f.svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeySergeant, 5)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("history appends and current is latest per role", func(t *testing.T) {
		_, err := f.svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeyDetective, 4)
		require.NoError(t, err)
		_, err = f.svc.SubmitScore(ctx, sergeant, assessment.ID, access.RoleKeySergeant, 9)
		require.NoError(t, err)
		later, err := f.svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeyDetective, 7)
		require.NoError(t, err)

		history, err := f.svc.ScoreHistory(ctx, assessment.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)

		current, err := f.svc.CurrentScores(ctx, assessment.ID)
		require.NoError(t, err)
		require.Len(t, current, 2)
		assert.Equal(t, later.ID, current[access.RoleKeyDetective].ID)
		assert.Equal(t, 7, current[access.RoleKeyDetective].Score)
		assert.Equal(t, 9, current[access.RoleKeySergeant].Score)
	})
}

func TestSubmitScoreRecordsTimelineEvent(t *testing.T) {
	ctx := context.Background()
	cases := casestore.NewMemory()
	accessStore := access.NewMemoryStore()
	users := identity.NewMemoryUserStore()
	idSvc := identity.New(users, identity.NewMemoryTokenStore(users))
	recorder := timeline.NewStoreRecorder(timeline.NewMemoryStore())
	svc := New(NewMemoryStore(), cases, access.NewAuthority(accessStore),
		WithUserResolver(idSvc), WithRecorder(recorder))
	f := &fixture{svc: svc, cases: cases, access: accessStore, users: users}

	detective := f.userWith(t, access.RoleKeyDetective)
	c, suspect := f.seedSuspect(t, casemodels.StatusSuspectAssessment)
	assessment, err := svc.CreateAssessment(ctx, detective, c.ID, suspect.ID)
	require.NoError(t, err)

	_, err = svc.SubmitScore(ctx, detective, assessment.ID, access.RoleKeyDetective, 6)
	require.NoError(t, err)

	events, err := recorder.ListByCase(ctx, c.ID)
	require.NoError(t, err)
	var scored []timeline.Event
	for _, event := range events {
		if event.Kind == timeline.KindScoreSubmitted {
			scored = append(scored, event)
		}
	}
	require.Len(t, scored, 1)
	require.NotNil(t, scored[0].ActorID)
	assert.Equal(t, detective.ID, *scored[0].ActorID)
	assert.Equal(t, assessment.ID.String(), scored[0].Detail["assessment_id"])
	assert.Equal(t, access.RoleKeyDetective, scored[0].Detail["role_key"])
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sergeant := f.userWith(t, access.RoleKeySergeant)
	detective := f.userWith(t, access.RoleKeyDetective)
	c, suspect := f.seedSuspect(t, casemodels.StatusActiveInvestigation)

	t.Run("issuance is sergeant-only", func(t *testing.T) {
		_, err := f.svc.IssueArrestOrder(ctx, detective, c.ID, suspect.ID, "flight risk")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("arrest order lifecycle", func(t *testing.T) {
		order, err := f.svc.IssueArrestOrder(ctx, sergeant, c.ID, suspect.ID, "flight risk")
		require.NoError(t, err)
		assert.Equal(t, OrderPending, order.Status)

		_, err = f.svc.UpdateArrestOrderStatus(ctx, sergeant, order.ID, OrderCompleted)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))

		updated, err := f.svc.UpdateArrestOrderStatus(ctx, sergeant, order.ID, OrderExecuted)
		require.NoError(t, err)
		assert.Equal(t, OrderExecuted, updated.Status)
	})

	t.Run("interrogation order lifecycle", func(t *testing.T) {
		when := time.Now().UTC().Add(24 * time.Hour)
		order, err := f.svc.IssueInterrogationOrder(ctx, sergeant, c.ID, suspect.ID, &when, "")
		require.NoError(t, err)
		assert.Equal(t, OrderPending, order.Status)

		updated, err := f.svc.UpdateInterrogationOrderStatus(ctx, sergeant, order.ID, OrderCompleted)
		require.NoError(t, err)
		assert.Equal(t, OrderCompleted, updated.Status)
	})
}

func TestReasoningWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	detective := f.userWith(t, access.RoleKeyDetective)
	sergeant := f.userWith(t, access.RoleKeySergeant)

	t.Run("only detectives submit", func(t *testing.T) {
		_, err := f.svc.SubmitReasoning(ctx, sergeant, "", "theory", "narrative")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	submission, err := f.svc.SubmitReasoning(ctx, detective, "CASE-1", "theory", "the suspect had access")
	require.NoError(t, err)
	assert.Equal(t, ReasoningPending, submission.Status)

	t.Run("detective cannot decide", func(t *testing.T) {
		_, err := f.svc.DecideReasoning(ctx, detective, submission.ID, ReasoningApproved, "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("no deciding your own submission", func(t *testing.T) {
		both := f.userWith(t, access.RoleKeyDetective, access.RoleKeySergeant)
		own, err := f.svc.SubmitReasoning(ctx, both, "", "own theory", "narrative")
		require.NoError(t, err)
		_, err = f.svc.DecideReasoning(ctx, both, own.ID, ReasoningApproved, "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("sergeant decides once", func(t *testing.T) {
		decided, err := f.svc.DecideReasoning(ctx, sergeant, submission.ID, ReasoningApproved, "sound")
		require.NoError(t, err)
		assert.Equal(t, ReasoningApproved, decided.Status)

		_, err = f.svc.DecideReasoning(ctx, sergeant, submission.ID, ReasoningRejected, "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})
}
