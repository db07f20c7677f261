package httptransport

import (
	"encoding/json"
	"net/http"

	"casefile/internal/rewards"
	"casefile/internal/wanted"
	derrors "casefile/pkg/domain-errors"
)

func (h *Handler) handleListWanted(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	entries, err := h.deps.Wanted.List(r.Context(), wanted.Status(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]wantedEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toWantedEntryResponse(entry))
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	nationalID := r.URL.Query().Get("national_id")
	if nationalID == "" {
		writeError(w, derrors.New(derrors.CodeValidation, "national_id is required"))
		return
	}
	snapshots, err := h.deps.Rewards.SnapshotsFor(r.Context(), nationalID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]snapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, toSnapshotResponse(snapshot))
	}
	writeData(w, http.StatusOK, out)
}

type submitTipRequest struct {
	CaseReference string `json:"case_reference"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
}

func (h *Handler) handleSubmitTip(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req submitTipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	tip, err := h.deps.Rewards.SubmitTip(r.Context(), actor, req.CaseReference, req.Subject, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toTipResponse(tip))
}

func (h *Handler) handleListTips(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	tips, err := h.deps.Rewards.ListTips(r.Context(), rewards.TipStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]tipResponse, 0, len(tips))
	for _, tip := range tips {
		out = append(out, toTipResponse(tip))
	}
	writeData(w, http.StatusOK, out)
}

type tipReviewRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) handleOfficerTipReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req tipReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	tip, err := h.deps.Rewards.ReviewTipAsOfficer(r.Context(), actor, id, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTipResponse(tip))
}

func (h *Handler) handleDetectiveTipReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req tipReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	tip, err := h.deps.Rewards.ReviewTipAsDetective(r.Context(), actor, id, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTipResponse(tip))
}

type verifyClaimRequest struct {
	NationalID string `json:"national_id"`
	ClaimID    string `json:"claim_id"`
}

func (h *Handler) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req verifyClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	tip, err := h.deps.Rewards.VerifyClaim(r.Context(), actor, req.NationalID, req.ClaimID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTipResponse(tip))
}
