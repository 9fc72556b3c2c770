package models

import (
	"golang.org/x/oauth2"
)

// IdentityKind names the kind of authenticated identity an authenticator produces
type IdentityKind string

const (
	// IdentityKindKeycloakBearer is produced by bearer-token introspection against Keycloak
	IdentityKindKeycloakBearer IdentityKind = "keycloak_bearer"
)

// Identity is any authenticated principal carried through a request
type Identity interface {
	Kind() IdentityKind
	Username() string
}

// BearerIdentity is the result of a successful token introspection.
// It is built once per validation and never persisted.
type BearerIdentity struct {
	Email       string
	Roles       []string
	Account     *Account // Nil when no local account matches the email
	AccessToken *oauth2.Token
	Subject     string
	GivenName   string
	FamilyName  string
	ClientID    string
}

// Kind implements Identity
func (*BearerIdentity) Kind() IdentityKind {
	return IdentityKindKeycloakBearer
}

// Username implements Identity; Keycloak identities are keyed by email
func (i *BearerIdentity) Username() string {
	return i.Email
}

// RawAccessToken returns the opaque token string the identity was built from
func (i *BearerIdentity) RawAccessToken() string {
	if i.AccessToken == nil {
		return ""
	}
	return i.AccessToken.AccessToken
}

// HasRole reports whether the identity holds role
func (i *BearerIdentity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity holds at least one of roles
func (i *BearerIdentity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// FullName joins given and family names
func (i *BearerIdentity) FullName() string {
	switch {
	case i.GivenName == "":
		return i.FamilyName
	case i.FamilyName == "":
		return i.GivenName
	default:
		return i.GivenName + " " + i.FamilyName
	}
}
