package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestBearerChallenge_String(t *testing.T) {
	tests := []struct {
		name      string
		challenge BearerChallenge
		want      string
	}{
		{
			name: "no credentials",
			want: "Bearer",
		},
		{
			name:      "realm only",
			challenge: BearerChallenge{Realm: "corp"},
			want:      `Bearer realm="corp"`,
		},
		{
			name:      "invalid token",
			challenge: BearerChallenge{Realm: "corp", Error: BearerInvalidToken, Description: "token is inactive"},
			want:      `Bearer realm="corp", error="invalid_token", error_description="token is inactive"`,
		},
		{
			name:      "description without error is dropped",
			challenge: BearerChallenge{Description: "ignored"},
			want:      "Bearer",
		},
		{
			name:      "quotes are escaped",
			challenge: BearerChallenge{Realm: `a"b\c`, Error: BearerInsufficientScope},
			want:      `Bearer realm="a\"b\\c", error="insufficient_scope"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.challenge.String())
		})
	}
}

func TestWriteUnauthorized(t *testing.T) {
	t.Run("invalid token challenge", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := WriteUnauthorized(w, BearerChallenge{Error: BearerInvalidToken}, "Invalid or expired token")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Bearer error="invalid_token"`, w.Header().Get("WWW-Authenticate"))
		response := decodeError(t, w)
		assert.Equal(t, "unauthorized", response.Error)
		assert.Equal(t, "Invalid or expired token", response.Message)
	})

	t.Run("missing credentials get a bare challenge", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteUnauthorized(w, BearerChallenge{Realm: "corp"}, ""))

		assert.Equal(t, `Bearer realm="corp"`, w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "Authentication required", decodeError(t, w).Message)
	})
}

func TestWriteForbidden(t *testing.T) {
	t.Run("insufficient scope carries details", func(t *testing.T) {
		w := httptest.NewRecorder()
		details := map[string]interface{}{"client_id": "gateway"}
		err := WriteForbidden(w, BearerChallenge{Error: BearerInsufficientScope}, "", details)
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, `Bearer error="insufficient_scope"`, w.Header().Get("WWW-Authenticate"))
		response := decodeError(t, w)
		assert.Equal(t, "forbidden", response.Error)
		assert.Equal(t, "Insufficient permissions", response.Message)
		assert.Equal(t, "gateway", response.Details["client_id"])
	})

	t.Run("no challenge without an error code", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteForbidden(w, BearerChallenge{Realm: "corp"}, "nope", nil))

		assert.Empty(t, w.Header().Get("WWW-Authenticate"))
		assert.Equal(t, "nope", decodeError(t, w).Message)
	})
}

func TestWriteSuccess(t *testing.T) {
	t.Run("ok wraps data", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteOK(w, map[string]string{"email": "jane@example.com"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body.Data["email"])
	})

	t.Run("created", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteCreated(w, map[string]string{"id": "1"}))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("no content has no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteNoContent(w)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("nil payload writes only the status", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusAccepted, nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteGatewayErrors(t *testing.T) {
	tests := []struct {
		name        string
		write       func(w http.ResponseWriter) error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name: "bad request",
			write: func(w http.ResponseWriter) error {
				return WriteBadRequest(w, "Validation failed", map[string]interface{}{"email": "email is required"})
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "bad_request",
			wantMessage: "Validation failed",
		},
		{
			name: "unknown account",
			write: func(w http.ResponseWriter) error {
				return WriteNotFound(w, "account not found", map[string]interface{}{"email": "ghost@example.com"})
			},
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "account not found",
		},
		{
			name: "duplicate account",
			write: func(w http.ResponseWriter) error {
				return WriteConflict(w, "account already exists", nil)
			},
			wantStatus:  http.StatusConflict,
			wantCode:    "conflict",
			wantMessage: "account already exists",
		},
		{
			name:        "identity provider down",
			write:       func(w http.ResponseWriter) error { return WriteBadGateway(w, "") },
			wantStatus:  http.StatusBadGateway,
			wantCode:    "bad_gateway",
			wantMessage: "Identity provider unavailable",
		},
		{
			name:        "internal",
			write:       func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Empty(t, w.Header().Get("WWW-Authenticate"))
			response := decodeError(t, w)
			assert.Equal(t, tt.wantCode, response.Error)
			assert.Equal(t, tt.wantMessage, response.Message)
		})
	}
}
