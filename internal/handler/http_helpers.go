package handler

import (
	"encoding/json"
	"net/http"

	apperrors "pdf-to-word/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
	ID      string `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorBody{Error: message})
}

func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	writeJSON(w, err.StatusCode, errorBody{Error: err.Message, Kind: string(err.Type), Details: err.Details})
}
