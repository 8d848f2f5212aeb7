package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/passwords/internal/domain/apperr"
	"github.com/ericfisherdev/passwords/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error","code":"INTERNAL_ERROR"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status, text code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeAppError maps an application error onto its HTTP status and body.
// Only the caller-facing message is written; wrapped causes stay in the logs.
func writeAppError(w http.ResponseWriter, err error) {
	rich, ok := apperr.As(err)
	if !ok || rich.Code == 0 {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := errorResponse{Error: rich.Message, Code: rich.TextCode}
	for _, fe := range rich.ValidationErrors {
		resp.Fields = append(resp.Fields, fieldError{Field: fe.Field, Message: fe.Message})
	}
	if rich.Code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="passwords"`)
	}
	writeJSON(w, rich.Code, resp)
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CredentialResponse is the JSON representation of a stored credential.
type CredentialResponse struct {
	ID        string `json:"_id"`
	PersonaID string `json:"personaId"`
	Name      string `json:"name"`
	URI       string `json:"uri"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialResponse converts a domain Credential to its JSON response representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        c.ID,
		PersonaID: c.PersonaID,
		Name:      c.Name,
		URI:       c.URI,
		Username:  c.Username,
		Password:  c.Password,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
