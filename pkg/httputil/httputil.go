// Package httputil provides JSON response and decode helpers shared by all
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	"kyc/pkg/kycerrors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a coded error onto its HTTP status. Internal error details
// never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	code := kycerrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != kycerrors.CodeInternal {
		resp.ErrorDescription = kycerrors.MessageOf(err)
	}
	WriteJSON(w, kycerrors.HTTPStatus(err), resp)
}

// Decode reads the request body into a value of type T. Unknown fields are
// rejected so malformed payloads fail loudly instead of silently dropping
// data.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, kycerrors.Wrap(err, kycerrors.CodeInvalidInput, "invalid request body")
	}
	return v, nil
}
