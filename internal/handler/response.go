package handler

import (
	"encoding/json"
	"net/http"
)

// JobSuccessResponse is the body returned whenever a job invocation ran to
// completion, including runs where some items failed.
type JobSuccessResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Stats   map[string]any `json:"stats"`
}

// JobErrorResponse is the body returned when a job invocation aborted
// before its items could be processed.
type JobErrorResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
