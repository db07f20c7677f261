// Package httptransport is the thin HTTP layer. Handlers decode, delegate
// to domain services, and encode; business rules live below.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	caseservice "casefile/internal/cases/service"
	"casefile/internal/identity"
	"casefile/internal/investigation"
	"casefile/internal/judiciary"
	"casefile/internal/payments"
	"casefile/internal/platform/middleware"
	"casefile/internal/rewards"
	"casefile/internal/timeline"
	"casefile/internal/wanted"
	derrors "casefile/pkg/domain-errors"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator

	Identity      *identity.Service
	Cases         *caseservice.Service
	Investigation *investigation.Service
	Judiciary     *judiciary.Service
	Rewards       *rewards.Service
	Wanted        *wanted.Service
	Payments      *payments.Service
	Timeline      timeline.Store

	// PaymentCallbackURL is the externally reachable callback endpoint
	// handed to the payment gateway.
	PaymentCallbackURL string
}

// Handler carries the wired services for all endpoints.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{deps: deps}
}

// NewRouter wires all routes. The payment gateway callback, health check,
// and metrics endpoint are public; everything else requires a bearer token.
func NewRouter(h *Handler) http.Handler {
	logger := h.deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)

		// Called by the gateway, not by an authenticated client.
		api.Get("/payments/callback", h.handlePaymentCallback)
		api.Post("/payments/callback", h.handlePaymentCallback)

		api.Group(func(private chi.Router) {
			private.Use(middleware.RequireAuth(h.deps.JWTValidator, logger))

			private.Post("/complaints", h.handleSubmitComplaint)
			private.Get("/complaints", h.handleListComplaints)
			private.Get("/complaints/{id}", h.handleGetComplaint)
			private.Post("/complaints/{id}/review", h.handleReviewComplaint)
			private.Post("/complaints/{id}/resubmit", h.handleResubmitComplaint)

			private.Get("/cases", h.handleListCases)
			private.Post("/cases/scene", h.handleCreateSceneCase)
			private.Get("/cases/{id}", h.handleGetCase)
			private.Get("/cases/{id}/participants", h.handleListParticipants)
			private.Get("/cases/{id}/timeline", h.handleCaseTimeline)
			private.Post("/cases/{id}/scene-approval", h.handleApproveSceneCase)
			private.Post("/cases/{id}/suspects", h.handleMarkSuspect)
			private.Post("/cases/{id}/transition", h.handleTransition)
			private.Get("/cases/{id}/referral-package", h.handleReferralPackage)
			private.Post("/cases/{id}/verdict", h.handleRecordVerdict)
			private.Get("/cases/{id}/verdict", h.handleGetVerdict)
			private.Get("/cases/{id}/payments", h.handleListCasePayments)

			private.Post("/assessments", h.handleCreateAssessment)
			private.Post("/assessments/{id}/scores", h.handleSubmitScore)
			private.Get("/assessments/{id}/scores", h.handleCurrentScores)
			private.Get("/assessments/{id}/scores/history", h.handleScoreHistory)

			private.Post("/orders/arrest", h.handleIssueArrestOrder)
			private.Patch("/orders/arrest/{id}", h.handleUpdateArrestOrder)
			private.Post("/orders/interrogation", h.handleIssueInterrogationOrder)
			private.Patch("/orders/interrogation/{id}", h.handleUpdateInterrogationOrder)

			private.Post("/reasonings", h.handleSubmitReasoning)
			private.Post("/reasonings/{id}/decision", h.handleDecideReasoning)

			private.Get("/wanted", h.handleListWanted)

			private.Get("/rewards/snapshots", h.handleSnapshots)
			private.Post("/rewards/tips", h.handleSubmitTip)
			private.Get("/rewards/tips", h.handleListTips)
			private.Post("/rewards/tips/{id}/officer-review", h.handleOfficerTipReview)
			private.Post("/rewards/tips/{id}/detective-review", h.handleDetectiveTipReview)
			private.Post("/rewards/claims/verify", h.handleVerifyClaim)

			private.Post("/payments", h.handleInitiatePayment)
			private.Get("/payments/{id}", h.handleGetPayment)
		})
	})
	return r
}

// principal resolves the authenticated user set by the auth middleware.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*identity.User, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, derrors.New(derrors.CodeUnauthorized, "authentication required"))
		return nil, false
	}
	user, err := h.deps.Identity.Resolve(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return user, true
}

// pathID parses the {id} route parameter.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
