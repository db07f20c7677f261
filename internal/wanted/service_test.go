package wanted

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	casemodels "casefile/internal/cases/models"
	casestore "casefile/internal/cases/store"
)

func seedSuspect() (*casemodels.Case, *casemodels.CaseParticipant) {
	c := &casemodels.Case{ID: uuid.New(), CaseNumber: casemodels.NewCaseNumber()}
	p := &casemodels.CaseParticipant{
		ID:         uuid.New(),
		CaseID:     c.ID,
		RoleInCase: casemodels.RoleSuspect,
		FullName:   "K. Moradi",
	}
	return c, p
}

func TestOnSuspectMarkedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := New(store)
	cases := casestore.NewMemory()
	c, p := seedSuspect()

	require.NoError(t, svc.OnSuspectMarked(ctx, cases, c, p))
	require.NoError(t, svc.OnSuspectMarked(ctx, cases, c, p))

	entries, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusWanted, entries[0].Status)
	assert.Equal(t, "K. Moradi", entries[0].FullName)
}

func TestOnSuspectMarkedRollsBackWithCaseTx(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := New(store)
	cases := casestore.NewMemory()
	c, p := seedSuspect()

	err := cases.InTx(ctx, func(tx casestore.Store) error {
		require.NoError(t, svc.OnSuspectMarked(ctx, tx, c, p))
		return errors.New("transaction aborted")
	})
	require.Error(t, err)

	entries, listErr := svc.List(ctx, "")
	require.NoError(t, listErr)
	assert.Empty(t, entries)
}

func TestPromoteStale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := New(store)
	now := time.Now().UTC()

	fresh := &Entry{
		ID: uuid.New(), CaseID: uuid.New(), ParticipantID: uuid.New(),
		Status: StatusWanted, MarkedAt: now.Add(-10 * 24 * time.Hour),
	}
	stale := &Entry{
		ID: uuid.New(), CaseID: uuid.New(), ParticipantID: uuid.New(),
		Status: StatusWanted, MarkedAt: now.Add(-45 * 24 * time.Hour),
	}
	require.NoError(t, store.Create(ctx, fresh))
	require.NoError(t, store.Create(ctx, stale))

	promoted, err := svc.PromoteStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	most, err := svc.List(ctx, StatusMostWanted)
	require.NoError(t, err)
	require.Len(t, most, 1)
	assert.Equal(t, stale.ID, most[0].ID)
	require.NotNil(t, most[0].PromotedAt)

	t.Run("sweep is idempotent", func(t *testing.T) {
		again, err := svc.PromoteStale(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 0, again)
	})
}
