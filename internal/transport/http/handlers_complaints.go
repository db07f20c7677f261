package httptransport

import (
	"encoding/json"
	"net/http"

	casemodels "casefile/internal/cases/models"
	derrors "casefile/pkg/domain-errors"
)

type submitComplaintRequest struct {
	Description string `json:"description"`
}

func (h *Handler) handleSubmitComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req submitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	complaint, err := h.deps.Cases.SubmitComplaint(r.Context(), actor, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toComplaintResponse(complaint))
}

func (h *Handler) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	complaints, err := h.deps.Cases.ListComplaints(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]complaintResponse, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, toComplaintResponse(c))
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) handleGetComplaint(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	complaint, err := h.deps.Cases.GetComplaint(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toComplaintResponse(complaint))
}

type reviewComplaintRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleReviewComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reviewComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	complaint, err := h.deps.Cases.ReviewComplaint(r.Context(), actor, id,
		casemodels.ReviewDecision(req.Decision), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toComplaintResponse(complaint))
}

type resubmitComplaintRequest struct {
	Description string `json:"description"`
}

func (h *Handler) handleResubmitComplaint(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req resubmitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	complaint, err := h.deps.Cases.ResubmitComplaint(r.Context(), actor, id, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toComplaintResponse(complaint))
}
