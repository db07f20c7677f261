package rewards

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
	"casefile/internal/wanted"
	derrors "casefile/pkg/domain-errors"
)

type fixture struct {
	svc    *Service
	cases  *casestore.Memory
	wanted *wanted.MemoryStore
	access *access.MemoryStore
	users  *identity.MemoryUserStore
}

func newFixture() *fixture {
	cases := casestore.NewMemory()
	wantedStore := wanted.NewMemoryStore()
	accessStore := access.NewMemoryStore()
	users := identity.NewMemoryUserStore()
	idSvc := identity.New(users, identity.NewMemoryTokenStore(users))
	svc := New(NewMemoryStore(), wantedStore, cases, access.NewAuthority(accessStore),
		WithUserResolver(idSvc))
	return &fixture{svc: svc, cases: cases, wanted: wantedStore, access: accessStore, users: users}
}

func (f *fixture) userWith(t *testing.T, nationalID string, keys ...string) *identity.User {
	t.Helper()
	user := &identity.User{
		ID:         uuid.New(),
		Username:   uuid.NewString()[:8],
		NationalID: nationalID,
		IsActive:   true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	for _, key := range keys {
		role := f.access.AddRole(key, key, true)
		f.access.Assign(user.ID, role.ID, uuid.New())
	}
	return user
}

// seedWanted creates a case of the given level with one suspect carrying
// the national_id, plus a wanted entry marked at markedAt.
func (f *fixture) seedWanted(t *testing.T, level casemodels.Level, nationalID string, markedAt time.Time, closedAt *time.Time) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	c := &casemodels.Case{
		ID:         uuid.New(),
		CaseNumber: casemodels.NewCaseNumber(),
		Title:      "seeded",
		Level:      level,
		SourceType: casemodels.SourceComplaint,
		Status:     casemodels.StatusActiveInvestigation,
		Priority:   casemodels.PriorityForLevel(level),
		ClosedAt:   closedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if closedAt != nil {
		c.Status = casemodels.StatusClosed
	}
	require.NoError(t, f.cases.CreateCase(ctx, c))
	p := &casemodels.CaseParticipant{
		ID:              uuid.New(),
		CaseID:          c.ID,
		ParticipantKind: casemodels.KindCivilian,
		RoleInCase:      casemodels.RoleSuspect,
		FullName:        "G. Rahimi",
		NationalID:      nationalID,
		CreatedAt:       now,
	}
	require.NoError(t, f.cases.CreateParticipant(ctx, p))
	require.NoError(t, f.wanted.Create(ctx, &wanted.Entry{
		ID:            uuid.New(),
		CaseID:        c.ID,
		ParticipantID: p.ID,
		FullName:      p.FullName,
		Status:        wanted.StatusWanted,
		MarkedAt:      markedAt,
	}))
}

func TestComputeSnapshots(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("forty days on a level 2 case", func(t *testing.T) {
		f := newFixture()
		closed := now
		f.seedWanted(t, casemodels.Level2, "1234567890", now.Add(-40*24*time.Hour), &closed)

		snapshots, err := f.svc.ComputeSnapshots(ctx, now)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, 40, snapshots[0].MaxDaysLj)
		assert.Equal(t, 2, snapshots[0].MaxCrimeLevelDi)
		assert.Equal(t, 80, snapshots[0].RankingScore)
		assert.Equal(t, int64(1_600_000_000), snapshots[0].RewardAmountRials)
	})

	t.Run("max across entries per person", func(t *testing.T) {
		f := newFixture()
		f.seedWanted(t, casemodels.Level3, "55555", now.Add(-90*24*time.Hour), nil)
		f.seedWanted(t, casemodels.LevelCritical, "55555", now.Add(-5*24*time.Hour), nil)

		snapshots, err := f.svc.ComputeSnapshots(ctx, now)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, 90, snapshots[0].MaxDaysLj)
		assert.Equal(t, 4, snapshots[0].MaxCrimeLevelDi)
		assert.Equal(t, 360, snapshots[0].RankingScore)
	})

	t.Run("surveillance days floor at zero", func(t *testing.T) {
		f := newFixture()
		marked := now.Add(24 * time.Hour)
		f.seedWanted(t, casemodels.Level1, "777", marked, nil)

		snapshots, err := f.svc.ComputeSnapshots(ctx, now)
		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, 0, snapshots[0].MaxDaysLj)
		assert.Equal(t, 0, snapshots[0].RankingScore)
	})

	t.Run("snapshots append, never replace", func(t *testing.T) {
		f := newFixture()
		f.seedWanted(t, casemodels.Level2, "888", now.Add(-10*24*time.Hour), nil)
		_, err := f.svc.ComputeSnapshots(ctx, now)
		require.NoError(t, err)
		_, err = f.svc.ComputeSnapshots(ctx, now.Add(time.Hour))
		require.NoError(t, err)

		history, err := f.svc.SnapshotsFor(ctx, "888")
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestTipWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	citizen := f.userWith(t, "3216549870")
	officer := f.userWith(t, "", access.RoleKeyPoliceOfficer)
	detective := f.userWith(t, "", access.RoleKeyDetective)

	tip, err := f.svc.SubmitTip(ctx, citizen, "CASE-1", "sighting", "seen near the docks")
	require.NoError(t, err)
	assert.Equal(t, TipPendingPolice, tip.Status)

	t.Run("detective cannot review first", func(t *testing.T) {
		_, err := f.svc.ReviewTipAsDetective(ctx, detective, tip.ID, true)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})

	t.Run("officer forwards, detective approves with claim id", func(t *testing.T) {
		forwarded, err := f.svc.ReviewTipAsOfficer(ctx, officer, tip.ID, true)
		require.NoError(t, err)
		assert.Equal(t, TipPendingDetective, forwarded.Status)

		approved, err := f.svc.ReviewTipAsDetective(ctx, detective, tip.ID, true)
		require.NoError(t, err)
		assert.Equal(t, TipApproved, approved.Status)
		assert.NotEmpty(t, approved.RewardClaimID)

		t.Run("claim verification", func(t *testing.T) {
			_, err := f.svc.VerifyClaim(ctx, citizen, citizen.NationalID, approved.RewardClaimID)
			require.Error(t, err)
			assert.True(t, derrors.HasCode(err, derrors.CodeRolePolicy))

			match, err := f.svc.VerifyClaim(ctx, officer, citizen.NationalID, approved.RewardClaimID)
			require.NoError(t, err)
			assert.Equal(t, tip.ID, match.ID)

			_, err = f.svc.VerifyClaim(ctx, officer, "0000000000", approved.RewardClaimID)
			require.Error(t, err)
			assert.True(t, derrors.HasCode(err, derrors.CodeNotFound))
		})
	})

	t.Run("officer rejection is terminal", func(t *testing.T) {
		second, err := f.svc.SubmitTip(ctx, citizen, "", "", "another tip")
		require.NoError(t, err)
		rejected, err := f.svc.ReviewTipAsOfficer(ctx, officer, second.ID, false)
		require.NoError(t, err)
		assert.Equal(t, TipRejected, rejected.Status)

		_, err = f.svc.ReviewTipAsDetective(ctx, detective, second.ID, true)
		require.Error(t, err)
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))
	})
}
