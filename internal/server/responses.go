package server

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes body as JSON with the given status. Envelope shape and
// status codes are part of the widget contract, so all handlers go through
// the helpers below.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeSuccess writes a {success:true, ...data} envelope.
func writeSuccess(w http.ResponseWriter, status int, data map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range data {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeError writes a {success:false, error, code} envelope.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// writeValidationError writes the envelope for a failed input check.
func writeValidationError(w http.ResponseWriter, verr *ValidationError) {
	writeError(w, http.StatusBadRequest, verr.Message, verr.Code)
}
