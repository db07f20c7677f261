package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/access"
	"casefile/internal/cases/models"
	"casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/wanted"
	derrors "casefile/pkg/domain-errors"
)

type fixture struct {
	svc    *Service
	store  *store.Memory
	access *access.MemoryStore
}

func newFixture(opts ...Option) *fixture {
	st := store.NewMemory()
	accessStore := access.NewMemoryStore()
	svc := New(st, access.NewAuthority(accessStore), opts...)
	return &fixture{svc: svc, store: st, access: accessStore}
}

// userWith creates an active user holding the given role keys.
func (f *fixture) userWith(keys ...string) *identity.User {
	user := &identity.User{ID: uuid.New(), IsActive: true}
	for _, key := range keys {
		role := f.access.AddRole(key, key, true)
		f.access.Assign(user.ID, role.ID, uuid.New())
	}
	return user
}

func (f *fixture) seedCase(t *testing.T, status models.Status, level models.Level) *models.Case {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Case{
		ID:         uuid.New(),
		CaseNumber: models.NewCaseNumber(),
		Title:      "seeded",
		Level:      level,
		SourceType: models.SourceComplaint,
		Status:     status,
		Priority:   models.PriorityForLevel(level),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.store.CreateCase(context.Background(), c))
	return c
}

func TestComplaintLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	cadet := f.userWith(access.RoleKeyCadet)
	complainant := f.userWith()

	complaint, err := f.svc.SubmitComplaint(ctx, complainant, "stolen vehicle")
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintSubmitted, complaint.Status)

	t.Run("only cadets review", func(t *testing.T) {
		officer := f.userWith(access.RoleKeyPoliceOfficer)
		_, err := f.svc.ReviewComplaint(ctx, officer, complaint.ID, models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		_, err := f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionRejected, "   ")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("three rejections terminally invalidate", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			rejected, err := f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionRejected, "incoherent")
			require.NoError(t, err)
			assert.Equal(t, models.ComplaintRejected, rejected.Status)
			_, err = f.svc.ResubmitComplaint(ctx, complainant, complaint.ID, "stolen vehicle, plate 12A345")
			require.NoError(t, err)
		}
		final, err := f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionRejected, "still incoherent")
		require.NoError(t, err)
		assert.Equal(t, models.ComplaintFinalInvalid, final.Status)
		assert.NotNil(t, final.InvalidatedAt)

		_, err = f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionApproved, "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))

		_, err = f.svc.ResubmitComplaint(ctx, complainant, complaint.ID, "one more try")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})
}

func TestComplaintApprovalCreatesCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	cadet := f.userWith(access.RoleKeyCadet)
	complainant := f.userWith()

	complaint, err := f.svc.SubmitComplaint(ctx, complainant, "burglary on Main St")
	require.NoError(t, err)

	validated, err := f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionApproved, "")
	require.NoError(t, err)
	require.Equal(t, models.ComplaintValidated, validated.Status)
	require.NotNil(t, validated.CaseID)
	firstValidatedAt := validated.ValidatedAt
	require.NotNil(t, firstValidatedAt)

	c, err := f.svc.GetCase(ctx, *validated.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, c.Status)
	assert.Equal(t, models.SourceComplaint, c.SourceType)
	assert.Equal(t, models.Level3, c.Level)
	assert.Equal(t, models.PriorityLow, c.Priority)
	assert.Equal(t, access.RoleKeyPoliceOfficer, c.AssignedRoleKey)

	participants, err := f.svc.ListParticipants(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, models.RoleComplainant, participants[0].RoleInCase)
	require.NotNil(t, participants[0].UserID)
	assert.Equal(t, complainant.ID, *participants[0].UserID)

	t.Run("re-approval is idempotent", func(t *testing.T) {
		again, err := f.svc.ReviewComplaint(ctx, cadet, complaint.ID, models.DecisionApproved, "")
		require.NoError(t, err)
		assert.Equal(t, validated.CaseID, again.CaseID)
		assert.Equal(t, firstValidatedAt, again.ValidatedAt)
	})
}

func TestCreateSceneCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	t.Run("cadet is rejected", func(t *testing.T) {
		cadet := f.userWith(access.RoleKeyCadet)
		_, err := f.svc.CreateSceneCase(ctx, cadet, SceneCaseInput{Title: "scene", Level: models.Level2})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("civilian is rejected", func(t *testing.T) {
		civilian := f.userWith()
		_, err := f.svc.CreateSceneCase(ctx, civilian, SceneCaseInput{Title: "scene", Level: models.Level2})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("sergeant files, assigned to captain", func(t *testing.T) {
		sergeant := f.userWith(access.RoleKeySergeant)
		c, err := f.svc.CreateSceneCase(ctx, sergeant, SceneCaseInput{
			Title:           "warehouse robbery",
			Level:           models.LevelCritical,
			SceneOccurredAt: time.Now().UTC(),
			Witnesses: []WitnessInput{
				{FullName: "A. Nazari", Phone: "0912", NationalID: "001"},
				{FullName: "B. Karimi", Phone: "0913", NationalID: "002"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnderReview, c.Status)
		assert.Equal(t, models.SourceSceneReport, c.SourceType)
		assert.Equal(t, access.RoleKeyCaptain, c.AssignedRoleKey)
		assert.Equal(t, models.PriorityUrgent, c.Priority)

		participants, err := f.svc.ListParticipants(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, participants, 3)
		byRole := map[models.RoleInCase]int{}
		for _, p := range participants {
			byRole[p.RoleInCase]++
		}
		assert.Equal(t, 1, byRole[models.RoleSergeant])
		assert.Equal(t, 2, byRole[models.RoleWitness])
	})

	t.Run("duplicate witness national_id", func(t *testing.T) {
		officer := f.userWith(access.RoleKeyPoliceOfficer)
		_, err := f.svc.CreateSceneCase(ctx, officer, SceneCaseInput{
			Title: "scuffle",
			Level: models.Level3,
			Witnesses: []WitnessInput{
				{FullName: "A", Phone: "1", NationalID: "9"},
				{FullName: "B", Phone: "2", NationalID: "9"},
			},
		})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})
}

func TestApproveSceneCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sergeant := f.userWith(access.RoleKeySergeant)

	file := func(t *testing.T) *models.Case {
		t.Helper()
		c, err := f.svc.CreateSceneCase(ctx, sergeant, SceneCaseInput{
			Title: "scene", Level: models.Level2, SceneOccurredAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		return c
	}

	t.Run("reporter cannot self-approve", func(t *testing.T) {
		c := file(t)
		_, err := f.svc.ApproveSceneCase(ctx, sergeant, c.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("wrong rank is rejected", func(t *testing.T) {
		c := file(t)
		detective := f.userWith(access.RoleKeyDetective)
		_, err := f.svc.ApproveSceneCase(ctx, detective, c.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("assigned captain approves", func(t *testing.T) {
		c := file(t)
		captain := f.userWith(access.RoleKeyCaptain)
		approved, err := f.svc.ApproveSceneCase(ctx, captain, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActiveInvestigation, approved.Status)
		assert.NotNil(t, approved.InvestigationStartedAt)

		report, err := f.store.GetSceneReportByCase(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, report.IsApproved())
		assert.Equal(t, captain.ID, *report.SuperiorApprovedBy)

		_, err = f.svc.ApproveSceneCase(ctx, captain, c.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("chief approves as escalation", func(t *testing.T) {
		c := file(t)
		chief := f.userWith(access.RoleKeyChief)
		approved, err := f.svc.ApproveSceneCase(ctx, chief, c.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActiveInvestigation, approved.Status)
	})

	t.Run("complaint case is not approvable", func(t *testing.T) {
		c := f.seedCase(t, models.StatusUnderReview, models.Level3)
		captain := f.userWith(access.RoleKeyCaptain)
		_, err := f.svc.ApproveSceneCase(ctx, captain, c.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})
}

type suspectHookSpy struct {
	calls int
}

func (h *suspectHookSpy) OnSuspectMarked(ctx context.Context, tx store.Store, c *models.Case, p *models.CaseParticipant) error {
	h.calls++
	return nil
}

type suspectHookFail struct{}

func (suspectHookFail) OnSuspectMarked(context.Context, store.Store, *models.Case, *models.CaseParticipant) error {
	return errors.New("wanted list unavailable")
}

// commitRefusingStore lets the transaction callback succeed and then fails
// the transaction itself, exercising the rollback path end to end.
type commitRefusingStore struct {
	store.Store
}

func (s *commitRefusingStore) InTx(ctx context.Context, fn func(store.Store) error) error {
	return s.Store.InTx(ctx, func(tx store.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("transaction aborted")
	})
}

func TestMarkSuspect(t *testing.T) {
	ctx := context.Background()
	hook := &suspectHookSpy{}
	f := newFixture(WithSuspectHook(hook))
	detective := f.userWith(access.RoleKeyDetective)

	t.Run("requires investigation status", func(t *testing.T) {
		c := f.seedCase(t, models.StatusUnderReview, models.Level2)
		_, err := f.svc.MarkSuspect(ctx, detective, c.ID, SuspectInput{FullName: "M. Tehrani"})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("creates suspect and fires hook", func(t *testing.T) {
		c := f.seedCase(t, models.StatusActiveInvestigation, models.Level2)
		p, err := f.svc.MarkSuspect(ctx, detective, c.ID, SuspectInput{FullName: "M. Tehrani", NationalID: "77"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSuspect, p.RoleInCase)
		assert.Equal(t, models.KindCivilian, p.ParticipantKind)
		assert.Equal(t, 1, hook.calls)

		_, err = f.svc.MarkSuspect(ctx, detective, c.ID, SuspectInput{FullName: "M. Tehrani", NationalID: "77"})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("hook failure rolls the participant back", func(t *testing.T) {
		failing := &suspectHookFail{}
		ff := newFixture(WithSuspectHook(failing))
		det := ff.userWith(access.RoleKeyDetective)
		c := ff.seedCase(t, models.StatusActiveInvestigation, models.Level2)

		_, err := ff.svc.MarkSuspect(ctx, det, c.ID, SuspectInput{FullName: "Z"})
		require.Error(t, err)

		participants, err := ff.svc.ListParticipants(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, participants)
	})

	t.Run("cadet rejected", func(t *testing.T) {
		c := f.seedCase(t, models.StatusActiveInvestigation, models.Level2)
		cadet := f.userWith(access.RoleKeyCadet)
		_, err := f.svc.MarkSuspect(ctx, cadet, c.ID, SuspectInput{FullName: "X"})
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})
}

// The wanted entry is written through the same transaction as the suspect
// participant: when the transaction fails, neither survives.
func TestMarkSuspectWantedEntryJoinsTransaction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	accessStore := access.NewMemoryStore()
	wantedStore := wanted.NewMemoryStore()
	wantedSvc := wanted.New(wantedStore)
	svc := New(&commitRefusingStore{Store: st}, access.NewAuthority(accessStore),
		WithSuspectHook(wantedSvc))

	detective := &identity.User{ID: uuid.New(), IsActive: true}
	role := accessStore.AddRole("detective", access.RoleKeyDetective, true)
	accessStore.Assign(detective.ID, role.ID, uuid.New())

	now := time.Now().UTC()
	c := &models.Case{
		ID:         uuid.New(),
		CaseNumber: models.NewCaseNumber(),
		Title:      "seeded",
		Level:      models.Level2,
		SourceType: models.SourceComplaint,
		Status:     models.StatusActiveInvestigation,
		Priority:   models.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.CreateCase(ctx, c))

	_, err := svc.MarkSuspect(ctx, detective, c.ID, SuspectInput{FullName: "M. Tehrani"})
	require.Error(t, err)

	participants, err := st.ListParticipants(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)

	entries, err := wantedStore.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type verdictCheckerStub struct {
	has bool
}

func (v verdictCheckerStub) HasVerdict(ctx context.Context, caseID uuid.UUID) (bool, error) {
	return v.has, nil
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("illegal transition lists allowed targets", func(t *testing.T) {
		f := newFixture()
		judge := f.userWith(access.RoleKeyJudge)
		c := f.seedCase(t, models.StatusUnderReview, models.Level2)
		_, err := f.svc.Transition(ctx, judge, c.ID, models.StatusInTrial)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
		assert.Contains(t, err.Error(), string(models.StatusActiveInvestigation))
	})

	t.Run("suspect assessment needs detective or sergeant", func(t *testing.T) {
		f := newFixture()
		c := f.seedCase(t, models.StatusActiveInvestigation, models.Level2)
		officer := f.userWith(access.RoleKeyPoliceOfficer)
		_, err := f.svc.Transition(ctx, officer, c.ID, models.StatusSuspectAssessment)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))

		detective := f.userWith(access.RoleKeyDetective)
		moved, err := f.svc.Transition(ctx, detective, c.ID, models.StatusSuspectAssessment)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuspectAssessment, moved.Status)
		assert.NotNil(t, moved.SuspectAssessedAt)
	})

	t.Run("critical referral requires chief", func(t *testing.T) {
		f := newFixture()
		c := f.seedCase(t, models.StatusSuspectAssessment, models.LevelCritical)
		captain := f.userWith(access.RoleKeyCaptain)
		_, err := f.svc.Transition(ctx, captain, c.ID, models.StatusReferralReady)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
		assert.Contains(t, err.Error(), "chief")

		chief := f.userWith(access.RoleKeyChief)
		moved, err := f.svc.Transition(ctx, chief, c.ID, models.StatusReferralReady)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReferralReady, moved.Status)
	})

	t.Run("normal referral allows captain", func(t *testing.T) {
		f := newFixture()
		c := f.seedCase(t, models.StatusSuspectAssessment, models.Level2)
		captain := f.userWith(access.RoleKeyCaptain)
		moved, err := f.svc.Transition(ctx, captain, c.ID, models.StatusReferralReady)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReferralReady, moved.Status)
	})

	t.Run("closing without a verdict is refused", func(t *testing.T) {
		f := newFixture(WithVerdictChecker(verdictCheckerStub{has: false}))
		c := f.seedCase(t, models.StatusInTrial, models.Level2)
		judge := f.userWith(access.RoleKeyJudge)
		_, err := f.svc.Transition(ctx, judge, c.ID, models.StatusClosed)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("closing with a verdict succeeds for a judge", func(t *testing.T) {
		f := newFixture(WithVerdictChecker(verdictCheckerStub{has: true}))
		c := f.seedCase(t, models.StatusInTrial, models.Level2)
		judge := f.userWith(access.RoleKeyJudge)
		moved, err := f.svc.Transition(ctx, judge, c.ID, models.StatusClosed)
		require.NoError(t, err)
		assert.Equal(t, models.StatusClosed, moved.Status)
		assert.NotNil(t, moved.ClosedAt)
	})

	t.Run("an already-set timestamp is never overwritten", func(t *testing.T) {
		f := newFixture()
		c := f.seedCase(t, models.StatusActiveInvestigation, models.Level2)
		earlier := time.Now().UTC().Add(-48 * time.Hour)
		c.SuspectAssessedAt = &earlier
		require.NoError(t, f.store.UpdateCase(ctx, c))

		detective := f.userWith(access.RoleKeyDetective)
		moved, err := f.svc.Transition(ctx, detective, c.ID, models.StatusSuspectAssessment)
		require.NoError(t, err)
		require.NotNil(t, moved.SuspectAssessedAt)
		assert.Equal(t, earlier, *moved.SuspectAssessedAt)
	})

	t.Run("superuser bypasses role gates", func(t *testing.T) {
		f := newFixture()
		c := f.seedCase(t, models.StatusSuspectAssessment, models.LevelCritical)
		root := &identity.User{ID: uuid.New(), IsActive: true, IsSuperuser: true}
		moved, err := f.svc.Transition(ctx, root, c.ID, models.StatusReferralReady)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReferralReady, moved.Status)
	})
}
