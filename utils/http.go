package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorResponse is the JSON body of every gateway error
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a payload under "data"
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Bearer error codes from RFC 6750 section 3.1.
const (
	BearerInvalidRequest    = "invalid_request"
	BearerInvalidToken      = "invalid_token"
	BearerInsufficientScope = "insufficient_scope"
)

// BearerChallenge is the WWW-Authenticate challenge sent with 401 and 403 responses.
// A request that carried no credentials gets a challenge without an error code.
type BearerChallenge struct {
	Realm       string
	Error       string
	Description string
}

// String renders the challenge as a WWW-Authenticate header value
func (c BearerChallenge) String() string {
	var params []string
	if c.Realm != "" {
		params = append(params, `realm="`+quoteParam(c.Realm)+`"`)
	}
	if c.Error != "" {
		params = append(params, `error="`+quoteParam(c.Error)+`"`)
		if c.Description != "" {
			params = append(params, `error_description="`+quoteParam(c.Description)+`"`)
		}
	}
	if len(params) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(params, ", ")
}

var paramEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteParam(s string) string {
	return paramEscaper.Replace(s)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 response with data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes a 201 response with data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteNoContent writes a 204 response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 response with per-field details
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteUnauthorized writes a 401 response carrying the bearer challenge
func WriteUnauthorized(w http.ResponseWriter, challenge BearerChallenge, message string) error {
	w.Header().Set("WWW-Authenticate", challenge.String())
	if message == "" {
		message = "Authentication required"
	}
	return writeError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 response. The challenge header is only set
// when the challenge names an error, as RFC 6750 does for insufficient_scope.
func WriteForbidden(w http.ResponseWriter, challenge BearerChallenge, message string, details map[string]interface{}) error {
	if challenge.Error != "" {
		w.Header().Set("WWW-Authenticate", challenge.String())
	}
	if message == "" {
		message = "Insufficient permissions"
	}
	return writeError(w, http.StatusForbidden, "forbidden", message, details)
}

// WriteNotFound writes a 404 response
func WriteNotFound(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusNotFound, "not_found", message, details)
}

// WriteConflict writes a 409 response
func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusConflict, "conflict", message, details)
}

// WriteBadGateway writes a 502 response for identity provider failures
func WriteBadGateway(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Identity provider unavailable"
	}
	return writeError(w, http.StatusBadGateway, "bad_gateway", message, nil)
}

// WriteInternalServerError writes a 500 response
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "An internal error occurred"
	}
	return writeError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) error {
	return WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}
