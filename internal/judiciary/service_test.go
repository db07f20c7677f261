package judiciary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/access"
	casemodels "casefile/internal/cases/models"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	derrors "casefile/pkg/domain-errors"
)

type fixture struct {
	svc    *Service
	cases  *casestore.Memory
	access *access.MemoryStore
}

func newFixture(opts ...Option) *fixture {
	cases := casestore.NewMemory()
	accessStore := access.NewMemoryStore()
	svc := New(cases, NewMemoryVerdictStore(), access.NewAuthority(accessStore), opts...)
	return &fixture{svc: svc, cases: cases, access: accessStore}
}

func (f *fixture) userWith(keys ...string) *identity.User {
	user := &identity.User{ID: uuid.New(), IsActive: true}
	for _, key := range keys {
		role := f.access.AddRole(key, key, true)
		f.access.Assign(user.ID, role.ID, uuid.New())
	}
	return user
}

func (f *fixture) seedCase(t *testing.T, status casemodels.Status) *casemodels.Case {
	t.Helper()
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
	require.NoError(t, f.cases.CreateCase(context.Background(), c))
	return c
}

type evidenceListerStub struct {
	items []EvidenceItem
}

func (e evidenceListerStub) ListByCase(ctx context.Context, caseID uuid.UUID) ([]EvidenceItem, error) {
	return e.items, nil
}

func TestReferralPackage(t *testing.T) {
	ctx := context.Background()
	lister := evidenceListerStub{items: []EvidenceItem{{ID: uuid.New(), Title: "knife", EvidenceType: "other"}}}
	f := newFixture(WithEvidenceLister(lister))
	judge := f.userWith(access.RoleKeyJudge)

	t.Run("unavailable before referral", func(t *testing.T) {
		c := f.seedCase(t, casemodels.StatusActiveInvestigation)
		_, err := f.svc.ReferralPackage(ctx, judge, c.ID)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("bundles case, participants and evidence", func(t *testing.T) {
		c := f.seedCase(t, casemodels.StatusReferralReady)
		p := &casemodels.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			ParticipantKind: casemodels.KindCivilian,
			RoleInCase:      casemodels.RoleSuspect,
			FullName:        "S",
			CreatedAt:       time.Now().UTC(),
		}
		require.NoError(t, f.cases.CreateParticipant(ctx, p))

		pkg, err := f.svc.ReferralPackage(ctx, judge, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, pkg.Case.ID)
		require.Len(t, pkg.Participants, 1)
		require.Len(t, pkg.Evidence, 1)
		assert.Equal(t, "knife", pkg.Evidence[0].Title)
	})
}

func TestRecordVerdict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	judge := f.userWith(access.RoleKeyJudge)

	t.Run("judge-only", func(t *testing.T) {
		c := f.seedCase(t, casemodels.StatusInTrial)
		chief := f.userWith(access.RoleKeyChief)
		_, err := f.svc.RecordVerdict(ctx, chief, c.ID, VerdictGuilty, "", "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))
	})

	t.Run("case must be exactly in trial", func(t *testing.T) {
		c := f.seedCase(t, casemodels.StatusReferralReady)
		_, err := f.svc.RecordVerdict(ctx, judge, c.ID, VerdictGuilty, "", "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("records, closes and is one-shot", func(t *testing.T) {
		c := f.seedCase(t, casemodels.StatusInTrial)
		v, err := f.svc.RecordVerdict(ctx, judge, c.ID, VerdictGuilty, "theft", "two years")
		require.NoError(t, err)
		assert.Equal(t, VerdictGuilty, v.Verdict)

		closed, err := f.cases.GetCase(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, casemodels.StatusClosed, closed.Status)
		require.NotNil(t, closed.ClosedAt)

		has, err := f.svc.HasVerdict(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, has)

		_, err = f.svc.RecordVerdict(ctx, judge, c.ID, VerdictNotGuilty, "", "")
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})
}

// abortingCaseStore lets the transaction callback succeed and then fails the
// transaction itself, exercising the rollback path end to end.
type abortingCaseStore struct {
	casestore.Store
}

func (s *abortingCaseStore) InTx(ctx context.Context, fn func(casestore.Store) error) error {
	return s.Store.InTx(ctx, func(tx casestore.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("transaction aborted")
	})
}

// The verdict row and the case closure share one transaction: when it fails,
// the case stays in trial and no verdict survives.
func TestRecordVerdictAtomicity(t *testing.T) {
	ctx := context.Background()
	cases := casestore.NewMemory()
	accessStore := access.NewMemoryStore()
	verdicts := NewMemoryVerdictStore()
	svc := New(&abortingCaseStore{Store: cases}, verdicts, access.NewAuthority(accessStore))

	judge := &identity.User{ID: uuid.New(), IsActive: true}
	role := accessStore.AddRole("judge", access.RoleKeyJudge, true)
	accessStore.Assign(judge.ID, role.ID, uuid.New())

	now := time.Now().UTC()
	c := &casemodels.Case{
		ID:         uuid.New(),
		CaseNumber: casemodels.NewCaseNumber(),
		Title:      "seeded",
		Level:      casemodels.Level2,
		SourceType: casemodels.SourceComplaint,
		Status:     casemodels.StatusInTrial,
		Priority:   casemodels.PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, cases.CreateCase(ctx, c))

	_, err := svc.RecordVerdict(ctx, judge, c.ID, VerdictGuilty, "theft", "two years")
	require.Error(t, err)

	current, err := cases.GetCase(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, casemodels.StatusInTrial, current.Status)
	assert.Nil(t, current.ClosedAt)

	_, err = verdicts.GetByCase(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
