package util

import (
	"encoding/json"
	"net/http"

	"campus-rickshaw/internal/shared/apperrors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ResponseInJSON(w http.ResponseWriter, statusCode int, object interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(object)
}

// ErrResponseInJSON renders a domain error with its machine-readable code.
// Storage-level errors are collapsed to a generic message so no internal
// detail reaches the client.
func ErrResponseInJSON(w http.ResponseWriter, err error) {
	body := errorBody{Code: apperrors.Code(err), Message: err.Error()}
	if apperrors.Internal(err) {
		body.Message = "internal server error"
	}
	ResponseInJSON(w, apperrors.Status(err), map[string]errorBody{"error": body})
}
