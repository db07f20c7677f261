package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	derrors "casefile/pkg/domain-errors"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data})
}

// writeError translates a domain error into the error envelope. Internal
// causes are never leaked to clients.
func writeError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{
		Code:    string(code),
		Message: "internal error",
		Details: map[string]any{},
	}
	var de *derrors.Error
	if errors.As(err, &de) && de.Code != derrors.CodeInternal {
		body.Message = de.Message
		if de.Details != nil {
			body.Details = de.Details
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(derrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: body})
}
