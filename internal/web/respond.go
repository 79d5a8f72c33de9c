package web

import (
	"encoding/json"
	"net/http"
)

// Issue is one field-level validation failure, mirrored in 400 bodies as
// {error, issues:[{path,message}]}.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type errorBody struct {
	Error  string  `json:"error"`
	Issues []Issue `json:"issues,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorBody{Error: message})
}

// RespondIssues writes a 400 with the structured issue list.
func RespondIssues(w http.ResponseWriter, issues []Issue) {
	RespondJSON(w, http.StatusBadRequest, errorBody{Error: "Validation error", Issues: issues})
}

func DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
