package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name,omitempty" validate:"max=5"`
	Internal    string `json:"-" validate:"required"`
}

type providerSettings struct {
	Provider         string        `validate:"required"`
	IntrospectionURL string        `validate:"omitempty,url"`
	HTTPTimeout      time.Duration `validate:"gt=0"`
	LogFormat        string        `validate:"omitempty,oneof=json text"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("request fields use their json names", func(t *testing.T) {
		err := ValidateStruct(&accountRequest{Email: "nope", DisplayName: "too long", Internal: "x"})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		assert.Equal(t, map[string]string{
			"email":        "email must be a valid email address",
			"display_name": "display_name must be at most 5 characters",
		}, GetValidationFields(err))
	})

	t.Run("fields hidden from json fall back to the go name", func(t *testing.T) {
		err := ValidateStruct(&accountRequest{Email: "jane@example.com"})
		require.Error(t, err)
		assert.Equal(t, "Internal is required", GetValidationFields(err)["Internal"])
	})

	t.Run("settings without json tags", func(t *testing.T) {
		err := ValidateStruct(providerSettings{IntrospectionURL: "not a url", LogFormat: "xml"})
		require.Error(t, err)

		assert.Equal(t, map[string]string{
			"Provider":         "Provider is required",
			"IntrospectionURL": "IntrospectionURL must be an absolute URL",
			"HTTPTimeout":      "HTTPTimeout must be greater than 0",
			"LogFormat":        "LogFormat must be one of: json, text",
		}, GetValidationFields(err))
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(&accountRequest{Email: "jane@example.com", Internal: "x"}))
		assert.NoError(t, ValidateStruct(providerSettings{
			Provider:         "keycloak",
			IntrospectionURL: "https://sso.example.com/realms/corp/protocol/openid-connect/token/introspect",
			HTTPTimeout:      time.Second,
		}))
	})

	t.Run("non-struct input is not a field error", func(t *testing.T) {
		err := ValidateStruct("plain string")
		require.Error(t, err)
		assert.False(t, IsValidationError(err))
	})
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("email", "jane.doe+sso@example.co"))

	for _, value := range []string{"", "not-an-email", "jane@", "@example.com"} {
		err := ValidateEmail("email", value)
		require.Error(t, err, value)
		assert.Equal(t, map[string]string{"email": "email must be a valid email address"}, GetValidationFields(err))
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("id", "6f1c1c7e-2f5b-4f43-9b4c-2f1f0a3d9e11")
	require.NoError(t, err)
	assert.Equal(t, "6f1c1c7e-2f5b-4f43-9b4c-2f1f0a3d9e11", id.String())

	_, err = ParseID("id", "42")
	require.Error(t, err)
	assert.Equal(t, "Validation failed", err.Error())
	assert.Equal(t, "id must be a UUID", GetValidationFields(err)["id"])
}

func TestGetValidationFields(t *testing.T) {
	wrapped := errors.Join(errors.New("create account"), &ValidationError{
		Message: "Validation failed",
		Fields:  map[string]string{"email": "email is required"},
	})
	assert.True(t, IsValidationError(wrapped))
	assert.Equal(t, "email is required", GetValidationFields(wrapped)["email"])

	assert.Nil(t, GetValidationFields(errors.New("plain")))
}
