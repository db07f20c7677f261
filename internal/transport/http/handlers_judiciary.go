package httptransport

import (
	"encoding/json"
	"net/http"

	"casefile/internal/judiciary"
	derrors "casefile/pkg/domain-errors"
)

func (h *Handler) handleReferralPackage(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	pkg, err := h.deps.Judiciary.ReferralPackage(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toReferralPackageResponse(pkg))
}

type recordVerdictRequest struct {
	Verdict               string `json:"verdict"`
	PunishmentTitle       string `json:"punishment_title"`
	PunishmentDescription string `json:"punishment_description"`
}

func (h *Handler) handleRecordVerdict(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req recordVerdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	verdict, err := h.deps.Judiciary.RecordVerdict(r.Context(), actor, id,
		judiciary.Verdict(req.Verdict), req.PunishmentTitle, req.PunishmentDescription)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toVerdictResponse(verdict))
}

func (h *Handler) handleGetVerdict(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	verdict, err := h.deps.Judiciary.VerdictOf(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toVerdictResponse(verdict))
}
