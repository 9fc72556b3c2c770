package keycloak

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RoleSet is the normalized form of a role list found in an introspection
// response. Keycloak extensions sometimes ship a list as a JSON string holding
// an encoded array, so decoding accepts an array, a string or null.
type RoleSet []string

// UnmarshalJSON implements json.Unmarshaler
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*s = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var roles []string
		if err := json.Unmarshal(data, &roles); err != nil {
			return fmt.Errorf("decode role list: %w", err)
		}
		*s = roles
		return nil

	case '"':
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("decode role string: %w", err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded == "null" {
			*s = nil
			return nil
		}
		var roles []string
		if err := json.Unmarshal([]byte(encoded), &roles); err != nil {
			return fmt.Errorf("decode string-encoded role list: %w", err)
		}
		*s = roles
		return nil
	}

	return fmt.Errorf("%w: role list must be an array or string, got %s", ErrInvalidResponse, trimmed)
}

// Contains reports whether role is part of the set
func (s RoleSet) Contains(role string) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// ClientAccess holds the roles granted for a single client
type ClientAccess struct {
	Roles RoleSet `json:"roles"`
}

// IntrospectionResult is the decoded body of the introspection endpoint.
// Per-client role data stays raw until ClientAccess or DeniedRolesFor reads
// it, so malformed entries for other clients never fail the decode.
type IntrospectionResult struct {
	Active     bool   `json:"active"`
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username,omitempty"`
	TokenType  string `json:"token_type,omitempty"`
	Exp        int64  `json:"exp,omitempty"`

	// resourceAccess is nil when the claim is absent from the response
	resourceAccess map[string]json.RawMessage
	deniedRoles    map[string]json.RawMessage

	// rawResourceAccess keeps the claim as received for diagnostics
	rawResourceAccess json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler
func (r *IntrospectionResult) UnmarshalJSON(data []byte) error {
	type plain IntrospectionResult
	aux := struct {
		*plain
		ResourceAccess json.RawMessage `json:"resource_access,omitempty"`
		DeniedRoles    json.RawMessage `json:"denied_roles,omitempty"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	access, err := decodeClientMap(aux.ResourceAccess)
	if err != nil {
		return fmt.Errorf("decode resource_access: %w", err)
	}
	r.resourceAccess = access
	r.rawResourceAccess = nil
	if access != nil {
		r.rawResourceAccess = aux.ResourceAccess
	}

	denied, err := decodeClientMap(aux.DeniedRoles)
	if err != nil {
		return fmt.Errorf("decode denied_roles: %w", err)
	}
	r.deniedRoles = denied
	return nil
}

// decodeClientMap decodes a claim keyed by client id, leaving values raw.
// Absent or null yields nil. An empty JSON array is an empty map, the way
// PHP encodes an empty associative array.
func decodeClientMap(data json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null":
		return nil, nil
	case isEmptyArray(trimmed):
		return map[string]json.RawMessage{}, nil
	}

	m := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return m, nil
}

func isEmptyArray(s string) bool {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return false
	}
	return strings.TrimSpace(s[1:len(s)-1]) == ""
}

// HasResourceAccess reports whether the resource_access claim was present
func (r *IntrospectionResult) HasResourceAccess() bool {
	return r.resourceAccess != nil
}

// HasClientAccess reports whether resource_access has an entry for clientID
func (r *IntrospectionResult) HasClientAccess(clientID string) bool {
	_, ok := r.resourceAccess[clientID]
	return ok
}

// ClientAccess decodes the resource_access entry for clientID.
// The bool is false when the claim has no entry for the client.
func (r *IntrospectionResult) ClientAccess(clientID string) (ClientAccess, bool, error) {
	raw, ok := r.resourceAccess[clientID]
	if !ok {
		return ClientAccess{}, false, nil
	}

	var access ClientAccess
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" || isEmptyArray(trimmed) {
		return access, true, nil
	}
	if err := json.Unmarshal(raw, &access); err != nil {
		return ClientAccess{}, true, fmt.Errorf("%w: resource_access[%s]: %v", ErrInvalidResponse, clientID, err)
	}
	return access, true, nil
}

// DeniedRolesFor decodes the denied roles for clientID; nil when none are listed
func (r *IntrospectionResult) DeniedRolesFor(clientID string) (RoleSet, error) {
	raw, ok := r.deniedRoles[clientID]
	if !ok {
		return nil, nil
	}

	var denied RoleSet
	if err := json.Unmarshal(raw, &denied); err != nil {
		return nil, fmt.Errorf("%w: denied_roles[%s]: %v", ErrInvalidResponse, clientID, err)
	}
	return denied, nil
}

// RawResourceAccess returns the resource_access claim as JSON
func (r *IntrospectionResult) RawResourceAccess() string {
	if len(r.rawResourceAccess) > 0 {
		return string(r.rawResourceAccess)
	}
	if r.resourceAccess == nil {
		return "null"
	}
	return "{}"
}
