package rest

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// RespondWithData wraps data in a successful envelope.
func RespondWithData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, APIResponse{Success: true, Data: data})
}
