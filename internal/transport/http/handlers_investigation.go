package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"casefile/internal/investigation"
	derrors "casefile/pkg/domain-errors"
)

type createAssessmentRequest struct {
	CaseID        uuid.UUID `json:"case_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

func (h *Handler) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	assessment, err := h.deps.Investigation.CreateAssessment(r.Context(), actor, req.CaseID, req.ParticipantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toAssessmentResponse(assessment))
}

type submitScoreRequest struct {
	RoleKey string `json:"role_key"`
	Score   int    `json:"score"`
}

func (h *Handler) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req submitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	entry, err := h.deps.Investigation.SubmitScore(r.Context(), actor, id, req.RoleKey, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toScoreResponse(entry))
}

func (h *Handler) handleCurrentScores(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	current, err := h.deps.Investigation.CurrentScores(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]scoreResponse, len(current))
	for roleKey, entry := range current {
		out[roleKey] = toScoreResponse(entry)
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) handleScoreHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	history, err := h.deps.Investigation.ScoreHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]scoreResponse, 0, len(history))
	for _, entry := range history {
		out = append(out, toScoreResponse(entry))
	}
	writeData(w, http.StatusOK, out)
}

type issueOrderRequest struct {
	CaseID        uuid.UUID `json:"case_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Reason        string    `json:"reason"`
	ScheduledAt   string    `json:"scheduled_at,omitempty"`
}

func (h *Handler) handleIssueArrestOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req issueOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	order, err := h.deps.Investigation.IssueArrestOrder(r.Context(), actor, req.CaseID, req.ParticipantID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toArrestOrderResponse(order))
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateArrestOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	order, err := h.deps.Investigation.UpdateArrestOrderStatus(r.Context(), actor, id,
		investigation.OrderStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toArrestOrderResponse(order))
}

func (h *Handler) handleIssueInterrogationOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req issueOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	order, err := h.deps.Investigation.IssueInterrogationOrder(r.Context(), actor,
		req.CaseID, req.ParticipantID, parseTime(req.ScheduledAt), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toInterrogationOrderResponse(order))
}

func (h *Handler) handleUpdateInterrogationOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	order, err := h.deps.Investigation.UpdateInterrogationOrderStatus(r.Context(), actor, id,
		investigation.OrderStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toInterrogationOrderResponse(order))
}

type submitReasoningRequest struct {
	CaseReference string `json:"case_reference"`
	Title         string `json:"title"`
	Narrative     string `json:"narrative"`
}

func (h *Handler) handleSubmitReasoning(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req submitReasoningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	reasoning, err := h.deps.Investigation.SubmitReasoning(r.Context(), actor,
		req.CaseReference, req.Title, req.Narrative)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toReasoningResponse(reasoning))
}

type decideReasoningRequest struct {
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
}

func (h *Handler) handleDecideReasoning(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req decideReasoningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	reasoning, err := h.deps.Investigation.DecideReasoning(r.Context(), actor, id,
		investigation.ReasoningStatus(req.Decision), req.Justification)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toReasoningResponse(reasoning))
}
