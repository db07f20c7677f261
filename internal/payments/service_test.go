package payments

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
	"casefile/internal/identity"
	derrors "casefile/pkg/domain-errors"
)

type fixture struct {
	svc   *Service
	store *MemoryStore
	cases *casestore.Memory
}

func newFixture(adapter GatewayAdapter) *fixture {
	store := NewMemoryStore()
	cases := casestore.NewMemory()
	return &fixture{
		svc:   New(store, cases, adapter),
		store: store,
		cases: cases,
	}
}

func (f *fixture) seedCase(t *testing.T, level casemodels.Level) (*casemodels.Case, *casemodels.CaseParticipant) {
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
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.cases.CreateCase(ctx, c))
	p := &casemodels.CaseParticipant{
		ID:              uuid.New(),
		CaseID:          c.ID,
		ParticipantKind: casemodels.KindCivilian,
		RoleInCase:      casemodels.RoleSuspect,
		FullName:        "B. Karimi",
		NationalID:      "0012345678",
		CreatedAt:       now,
	}
	require.NoError(t, f.cases.CreateParticipant(ctx, p))
	return c, p
}

func actor() *identity.User {
	return &identity.User{ID: uuid.New(), Username: "payer", IsActive: true}
}

type failingGateway struct{}

func (failingGateway) Name() string { return "broken" }

func (failingGateway) RequestPayment(context.Context, int64, string, string, string) (PaymentRequest, error) {
	return PaymentRequest{}, errors.New("provider unavailable")
}

func (failingGateway) VerifyCallback(context.Context, map[string]string) (CallbackResult, error) {
	return CallbackResult{}, errors.New("provider unavailable")
}

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, p := f.seedCase(t, casemodels.Level2)
		_, _, err := f.svc.Initiate(ctx, nil, c.ID, p.ID, 5_000_000, "https://api.test/callback")
		assert.True(t, derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, p := f.seedCase(t, casemodels.Level2)
		_, _, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 0, "https://api.test/callback")
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("only level 2 and 3 cases are eligible", func(t *testing.T) {
		f := newFixture(MockGateway{})
		for _, level := range []casemodels.Level{casemodels.Level1, casemodels.LevelCritical} {
			c, p := f.seedCase(t, level)
			_, _, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 5_000_000, "https://api.test/callback")
			assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy), "level %s", level)
		}
	})

	t.Run("participant must be a suspect on the case", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, _ := f.seedCase(t, casemodels.Level2)
		witness := &casemodels.CaseParticipant{
			ID:              uuid.New(),
			CaseID:          c.ID,
			ParticipantKind: casemodels.KindCivilian,
			RoleInCase:      casemodels.RoleWitness,
			FullName:        "S. Moradi",
			CreatedAt:       time.Now().UTC(),
		}
		require.NoError(t, f.cases.CreateParticipant(ctx, witness))
		_, _, err := f.svc.Initiate(ctx, actor(), c.ID, witness.ID, 5_000_000, "https://api.test/callback")
		assert.True(t, derrors.HasCode(err, derrors.CodeWorkflowPolicy))

		_, suspect := f.seedCase(t, casemodels.Level3)
		_, _, err = f.svc.Initiate(ctx, actor(), c.ID, suspect.ID, 5_000_000, "https://api.test/callback")
		assert.True(t, derrors.HasCode(err, derrors.CodeValidation))
	})

	t.Run("creates a pending transaction with gateway ref", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, p := f.seedCase(t, casemodels.Level3)
		tx, redirect, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 5_000_000, "https://api.test/callback")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, tx.Status)
		assert.Equal(t, "mock", tx.GatewayName)
		assert.Equal(t, "MOCK-"+tx.ID.String(), tx.GatewayRef)
		assert.Contains(t, redirect, tx.ID.String())

		stored, err := f.store.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.GatewayRef, stored.GatewayRef)
	})

	t.Run("gateway failure marks the transaction failed", func(t *testing.T) {
		f := newFixture(failingGateway{})
		c, p := f.seedCase(t, casemodels.Level2)
		_, _, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 5_000_000, "https://api.test/callback")
		assert.True(t, derrors.HasCode(err, derrors.CodeGateway))

		txs, err := f.store.ListByCase(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, StatusFailed, txs[0].Status)
	})
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("settles success and is idempotent", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, p := f.seedCase(t, casemodels.Level2)
		tx, _, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 5_000_000, "https://api.test/callback")
		require.NoError(t, err)

		settled, err := f.svc.HandleCallback(ctx, tx.ID, map[string]string{"ref": tx.GatewayRef})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, settled.Status)
		require.NotNil(t, settled.VerifiedAt)
		firstVerified := *settled.VerifiedAt

		again, err := f.svc.HandleCallback(ctx, tx.ID, map[string]string{"ref": "something-else"})
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, again.Status)
		assert.Equal(t, firstVerified, *again.VerifiedAt)
	})

	t.Run("unverified callback fails the transaction", func(t *testing.T) {
		f := newFixture(MockGateway{})
		c, p := f.seedCase(t, casemodels.Level3)
		tx, _, err := f.svc.Initiate(ctx, actor(), c.ID, p.ID, 5_000_000, "https://api.test/callback")
		require.NoError(t, err)

		settled, err := f.svc.HandleCallback(ctx, tx.ID, map[string]string{"ref": "BOGUS-1"})
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, settled.Status)
		assert.NotNil(t, settled.VerifiedAt)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newFixture(MockGateway{})
		_, err := f.svc.HandleCallback(ctx, uuid.New(), map[string]string{})
		assert.True(t, derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(MockGateway{})
	c, p := f.seedCase(t, casemodels.Level2)

	now := time.Now().UTC()
	stale := &Transaction{
		ID: uuid.New(), CaseID: c.ID, ParticipantID: p.ID,
		AmountRials: 5_000_000, GatewayName: "mock", Status: StatusPending,
		CreatedAt: now.Add(-10 * 24 * time.Hour), UpdatedAt: now.Add(-10 * 24 * time.Hour),
	}
	fresh := &Transaction{
		ID: uuid.New(), CaseID: c.ID, ParticipantID: p.ID,
		AmountRials: 5_000_000, GatewayName: "mock", Status: StatusPending,
		CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
	}
	settled := &Transaction{
		ID: uuid.New(), CaseID: c.ID, ParticipantID: p.ID,
		AmountRials: 5_000_000, GatewayName: "mock", Status: StatusSuccess,
		CreatedAt: now.Add(-20 * 24 * time.Hour), UpdatedAt: now.Add(-20 * 24 * time.Hour),
	}
	for _, tx := range []*Transaction{stale, fresh, settled} {
		require.NoError(t, f.store.Create(ctx, tx))
	}

	failed, err := f.svc.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	got, err := f.store.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)

	got, err = f.store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	got, err = f.store.Get(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)

	again, err := f.svc.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, again)
}
