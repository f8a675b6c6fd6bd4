package http

import (
	"encoding/json"
	"net/http"
)

// CodeUnavailable marks a readiness failure.
const CodeUnavailable = "UNAVAILABLE"

// SuccessEnvelope wraps the JSON answers polled by the browser.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope carries a failure in the same shape.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody is a normalized failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a success envelope. Polled state must never be cached.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, SuccessEnvelope{Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	writeEnvelope(w, status, ErrorEnvelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

func writeEnvelope(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStale answers a list fetch that a newer one has overtaken.
func writeStale(w http.ResponseWriter, generation string) {
	w.Header().Set("X-Fetch-Generation", generation)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
