package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	derrors "casefile/pkg/domain-errors"
)

type initiatePaymentRequest struct {
	CaseID        uuid.UUID `json:"case_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	AmountRials   int64     `json:"amount_rials"`
}

type initiatePaymentResponse struct {
	Transaction transactionResponse `json:"transaction"`
	RedirectURL string              `json:"redirect_url"`
}

func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "invalid request body"))
		return
	}
	tx, redirectURL, err := h.deps.Payments.Initiate(r.Context(), actor,
		req.CaseID, req.ParticipantID, req.AmountRials, h.deps.PaymentCallbackURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, initiatePaymentResponse{
		Transaction: toTransactionResponse(tx),
		RedirectURL: redirectURL,
	})
}

// handlePaymentCallback is hit by the gateway. The transaction id is the
// only credential; the body or query string is handed to the adapter as-is.
func (h *Handler) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{}
	if r.Method == http.MethodPost && r.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(r.Body).Decode(&data)
	}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			data[key] = values[0]
		}
	}
	transactionID, err := uuid.Parse(data["transaction_id"])
	if err != nil {
		writeError(w, derrors.New(derrors.CodeValidation, "transaction_id is required"))
		return
	}
	tx, err := h.deps.Payments.HandleCallback(r.Context(), transactionID, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tx, err := h.deps.Payments.Transaction(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) handleListCasePayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txs, err := h.deps.Payments.ListByCase(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeData(w, http.StatusOK, out)
}
