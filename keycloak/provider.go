package keycloak

import (
	"errors"
	"fmt"
	"strings"
)

// ProviderTypeKeycloak is the only provider type the gateway can introspect against
const ProviderTypeKeycloak = "keycloak"

// DefaultClientName is the registry name the gateway resolves at startup
const DefaultClientName = "keycloak"

var (
	// ErrClientNotRegistered is returned when a named client is missing from the registry
	ErrClientNotRegistered = errors.New("oauth2 client not registered")
)

// ProviderConfig holds a resolved OAuth2 client registration
type ProviderConfig struct {
	Type             string
	BaseURL          string
	Realm            string
	ClientID         string
	ClientSecret     string
	IntrospectionURL string // Overrides the URL derived from BaseURL and Realm
}

// IsKeycloak reports whether the registration points at a Keycloak provider
func (p ProviderConfig) IsKeycloak() bool {
	return strings.EqualFold(p.Type, ProviderTypeKeycloak)
}

// TokenIntrospectionURL returns the RFC 7662 endpoint of the realm
func (p ProviderConfig) TokenIntrospectionURL() string {
	if p.IntrospectionURL != "" {
		return p.IntrospectionURL
	}
	if p.BaseURL == "" || p.Realm == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/realms/%s/protocol/openid-connect/token/introspect",
		strings.TrimSuffix(p.BaseURL, "/"),
		p.Realm,
	)
}

// ClientRegistry keeps the OAuth2 client registrations known to the gateway
type ClientRegistry struct {
	clients map[string]ProviderConfig
}

// NewClientRegistry creates an empty registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]ProviderConfig),
	}
}

// Register adds or replaces a named registration
func (r *ClientRegistry) Register(name string, cfg ProviderConfig) {
	r.clients[name] = cfg
}

// Client returns the registration stored under name
func (r *ClientRegistry) Client(name string) (ProviderConfig, error) {
	cfg, ok := r.clients[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrClientNotRegistered, name)
	}
	return cfg, nil
}
