package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/access"
	caseservice "casefile/internal/cases/service"
	casestore "casefile/internal/cases/store"
	"casefile/internal/identity"
	"casefile/internal/investigation"
	"casefile/internal/judiciary"
	"casefile/internal/payments"
	"casefile/internal/platform/middleware"
	"casefile/internal/rewards"
	"casefile/internal/wanted"
)

type apiFixture struct {
	router    http.Handler
	validator *middleware.HMACValidator
	users     *identity.MemoryUserStore
	access    *access.MemoryStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	caseStore := casestore.NewMemory()
	accessStore := access.NewMemoryStore()
	authority := access.NewAuthority(accessStore)
	users := identity.NewMemoryUserStore()
	identitySvc := identity.New(users, identity.NewMemoryTokenStore(users))

	wantedSvc := wanted.New(wanted.NewMemoryStore())
	judiciarySvc := judiciary.New(caseStore, judiciary.NewMemoryVerdictStore(), authority)
	casesSvc := caseservice.New(caseStore, authority,
		caseservice.WithSuspectHook(wantedSvc),
		caseservice.WithVerdictChecker(judiciarySvc))
	investigationSvc := investigation.New(investigation.NewMemoryStore(), caseStore, authority,
		investigation.WithUserResolver(identitySvc))
	rewardsSvc := rewards.New(rewards.NewMemoryStore(), wanted.NewMemoryStore(), caseStore, authority,
		rewards.WithUserResolver(identitySvc))
	paymentsSvc := payments.New(payments.NewMemoryStore(), caseStore, payments.MockGateway{})

	validator := middleware.NewHMACValidator("test-signing-key")
	handler := NewHandler(Deps{
		JWTValidator:       validator,
		Identity:           identitySvc,
		Cases:              casesSvc,
		Investigation:      investigationSvc,
		Judiciary:          judiciarySvc,
		Rewards:            rewardsSvc,
		Wanted:             wantedSvc,
		Payments:           paymentsSvc,
		PaymentCallbackURL: "https://api.test/api/v1/payments/callback",
	})
	return &apiFixture{
		router:    NewRouter(handler),
		validator: validator,
		users:     users,
		access:    accessStore,
	}
}

func (f *apiFixture) userWith(t *testing.T, keys ...string) *identity.User {
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

func (f *apiFixture) do(t *testing.T, method, path string, user *identity.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := f.validator.IssueToken(user.ID.String(), time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestComplaintEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	citizen := f.userWith(t)
	cadet := f.userWith(t, access.RoleKeyCadet)

	rec := f.do(t, http.MethodPost, "/api/v1/complaints", nil, map[string]string{"description": "stolen car"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/complaints", citizen, map[string]string{"description": "stolen car"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var complaint complaintResponse
	decodeData(t, rec, &complaint)
	assert.Equal(t, "submitted", complaint.Status)

	// Citizens cannot review.
	rec = f.do(t, http.MethodPost, "/api/v1/complaints/"+complaint.ID.String()+"/review", citizen,
		map[string]string{"decision": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/complaints/"+complaint.ID.String()+"/review", cadet,
		map[string]string{"decision": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &complaint)
	assert.Equal(t, "validated", complaint.Status)
	require.NotNil(t, complaint.CaseID)

	rec = f.do(t, http.MethodGet, "/api/v1/cases/"+complaint.CaseID.String(), citizen, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var c caseResponse
	decodeData(t, rec, &c)
	assert.Equal(t, "under_review", c.Status)
	assert.Equal(t, "complaint", c.SourceType)
}

func TestSceneCaseEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	sergeant := f.userWith(t, access.RoleKeySergeant)
	captain := f.userWith(t, access.RoleKeyCaptain)

	rec := f.do(t, http.MethodPost, "/api/v1/cases/scene", sergeant, map[string]any{
		"title":             "warehouse robbery",
		"level":             "2",
		"scene_occurred_at": time.Now().UTC().Format(time.RFC3339),
		"witnesses": []map[string]string{
			{"full_name": "A. Naderi", "phone": "0912", "national_id": "0011223344"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c caseResponse
	decodeData(t, rec, &c)
	assert.Equal(t, "submitted", c.Status)
	assert.Equal(t, access.RoleKeyCaptain, c.AssignedRoleKey)

	rec = f.do(t, http.MethodPost, "/api/v1/cases/"+c.ID.String()+"/scene-approval", captain, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &c)
	assert.Equal(t, "active_investigation", c.Status)
	assert.NotNil(t, c.InvestigationStartedAt)

	// Marking a suspect creates the wanted entry.
	detective := f.userWith(t, access.RoleKeyDetective)
	rec = f.do(t, http.MethodPost, "/api/v1/cases/"+c.ID.String()+"/suspects", detective,
		map[string]string{"full_name": "M. Ahmadi", "national_id": "9988776655"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/wanted", detective, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []wantedEntryResponse
	decodeData(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "M. Ahmadi", entries[0].FullName)
	assert.Equal(t, "wanted", entries[0].Status)
}

func TestPaymentEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	sergeant := f.userWith(t, access.RoleKeySergeant)
	captain := f.userWith(t, access.RoleKeyCaptain)
	detective := f.userWith(t, access.RoleKeyDetective)
	citizen := f.userWith(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cases/scene", sergeant, map[string]any{
		"title":             "pickpocketing",
		"level":             "3",
		"scene_occurred_at": time.Now().UTC().Format(time.RFC3339),
		"witnesses":         []map[string]string{},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c caseResponse
	decodeData(t, rec, &c)

	rec = f.do(t, http.MethodPost, "/api/v1/cases/"+c.ID.String()+"/scene-approval", captain, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/cases/"+c.ID.String()+"/suspects", detective,
		map[string]string{"full_name": "R. Ghasemi", "national_id": "5544332211"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var suspect participantResponse
	decodeData(t, rec, &suspect)

	rec = f.do(t, http.MethodPost, "/api/v1/payments", citizen, map[string]any{
		"case_id":        c.ID,
		"participant_id": suspect.ID,
		"amount_rials":   5_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var initiated initiatePaymentResponse
	decodeData(t, rec, &initiated)
	assert.Equal(t, "pending", initiated.Transaction.Status)
	assert.NotEmpty(t, initiated.RedirectURL)

	// The gateway callback is unauthenticated.
	callback := "/api/v1/payments/callback?transaction_id=" + initiated.Transaction.ID.String() +
		"&ref=" + initiated.Transaction.GatewayRef
	rec = f.do(t, http.MethodGet, callback, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var settled transactionResponse
	decodeData(t, rec, &settled)
	assert.Equal(t, "success", settled.Status)
	assert.NotNil(t, settled.VerifiedAt)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
