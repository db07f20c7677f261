package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	casemodels "casefile/internal/cases/models"
	caseservice "casefile/internal/cases/service"
	casestore "casefile/internal/cases/store"
	derrors "casefile/pkg/domain-errors"
)

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	q := r.URL.Query()
	filter := casestore.Filter{
		Status:     casemodels.Status(q.Get("status")),
		SourceType: casemodels.SourceType(q.Get("source_type")),
		Level:      casemodels.Level(q.Get("level")),
		Search:     q.Get("search"),
	}
	cases, err := h.deps.Cases.ListCases(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toCaseResponses(cases))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.deps.Cases.GetCase(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toCaseResponse(c))
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	participants, err := h.deps.Cases.ListParticipants(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toParticipantResponses(participants))
}

func (h *Handler) handleCaseTimeline(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.deps.Timeline == nil {
		writeData(w, http.StatusOK, []struct{}{})
		return
	}
	events, err := h.deps.Timeline.ListByCase(r.Context(), id)
	if err != nil {
		writeError(w, derrors.Wrap(err, derrors.CodeInternal, "failed to list timeline events"))
		return
	}
	writeData(w, http.StatusOK, events)
}

type witnessRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

type createSceneCaseRequest struct {
	Title           string           `json:"title"`
	Summary         string           `json:"summary"`
	Level           string           `json:"level"`
	SceneOccurredAt time.Time        `json:"scene_occurred_at"`
	Witnesses       []witnessRequest `json:"witnesses"`
}

func (h *Handler) handleCreateSceneCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createSceneCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	input := caseservice.SceneCaseInput{
		Title:           req.Title,
		Summary:         req.Summary,
		Level:           casemodels.Level(req.Level),
		SceneOccurredAt: req.SceneOccurredAt,
	}
	for _, witness := range req.Witnesses {
		input.Witnesses = append(input.Witnesses, caseservice.WitnessInput{
			FullName:   witness.FullName,
			Phone:      witness.Phone,
			NationalID: witness.NationalID,
		})
	}
	c, err := h.deps.Cases.CreateSceneCase(r.Context(), actor, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toCaseResponse(c))
}

func (h *Handler) handleApproveSceneCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.deps.Cases.ApproveSceneCase(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toCaseResponse(c))
}

type markSuspectRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
	Notes      string `json:"notes"`
}

func (h *Handler) handleMarkSuspect(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req markSuspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	participant, err := h.deps.Cases.MarkSuspect(r.Context(), actor, id, caseservice.SuspectInput{
		FullName:   req.FullName,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toParticipantResponse(participant))
}

type transitionRequest struct {
	Target string `json:"target"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	c, err := h.deps.Cases.Transition(r.Context(), actor, id, casemodels.Status(req.Target))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toCaseResponse(c))
}
