package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/keycloak-gateway/keycloak"
	"github.com/upb/keycloak-gateway/models"
	"github.com/upb/keycloak-gateway/repositories"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Introspector validates opaque tokens against the identity provider
type Introspector interface {
	// Provider returns the client registration the introspector authenticates with
	Provider() keycloak.ProviderConfig

	// Introspect returns the provider's view of the token
	Introspect(ctx context.Context, token string) (*keycloak.IntrospectionResult, error)
}

// TokenAuthenticator turns bearer tokens into Keycloak identities.
// It keeps no state between calls; every call is one introspection round trip.
type TokenAuthenticator struct {
	introspector Introspector
	accounts     repositories.AccountLookup
	logger       *zap.Logger
}

// NewTokenAuthenticator creates a new TokenAuthenticator.
// accounts may be nil, in which case identities carry no local account.
func NewTokenAuthenticator(introspector Introspector, accounts repositories.AccountLookup, logger *zap.Logger) *TokenAuthenticator {
	return &TokenAuthenticator{
		introspector: introspector,
		accounts:     accounts,
		logger:       logger,
	}
}

// Authenticate validates token through introspection and builds the identity
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*models.BearerIdentity, error) {
	provider := a.introspector.Provider()
	if !provider.IsKeycloak() {
		return nil, NewDomainError(ErrorTypeConfiguration,
			fmt.Sprintf("the OAuth2 client provider must be of type %q, got %q", keycloak.ProviderTypeKeycloak, provider.Type),
			nil)
	}
	if provider.ClientID == "" {
		return nil, NewDomainError(ErrorTypeConfiguration, "the OAuth2 client has no client id", nil)
	}

	result, err := a.introspector.Introspect(ctx, token)
	if err != nil {
		if errors.Is(err, keycloak.ErrMissingIntrospectionURL) {
			return nil, WrapError(ErrorTypeConfiguration, "the OAuth2 client has no introspection endpoint", err)
		}
		a.logger.Warn("token introspection failed", zap.Error(err))
		return nil, WrapExternal(ErrNetwork.Message, err)
	}

	if !result.Active {
		a.logger.Debug("inactive token rejected")
		return nil, NewDomainError(ErrorTypeUnauthorized, ErrInvalidToken.Message, nil)
	}

	if result.HasResourceAccess() {
		if !result.HasClientAccess(provider.ClientID) {
			raw := result.RawResourceAccess()
			a.logger.Info("token lacks resource access for client",
				zap.String("client_id", provider.ClientID),
				zap.String("sub", result.Sub),
				zap.String("resource_access", raw))
			return nil, NewDomainError(ErrorTypeForbidden,
				fmt.Sprintf("%s. Current resource access: %s", ErrInsufficientPermissions.Message, raw),
				nil).
				WithDetail("client_id", provider.ClientID).
				WithDetail("resource_access", raw)
		}
	}

	roles, err := keycloak.ComputeRoles(result, provider.ClientID)
	if err != nil {
		a.logger.Warn("malformed role data for client",
			zap.String("client_id", provider.ClientID),
			zap.Error(err))
		return nil, WrapExternal(ErrNetwork.Message, err)
	}

	account, err := a.lookupAccount(ctx, result.Email)
	if err != nil {
		return nil, err
	}

	identity := &models.BearerIdentity{
		Email:   result.Email,
		Roles:   roles,
		Account: account,
		AccessToken: &oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		},
		Subject:    result.Sub,
		GivenName:  result.GivenName,
		FamilyName: result.FamilyName,
		ClientID:   result.ClientID,
	}

	a.logger.Debug("token authenticated",
		zap.String("sub", identity.Subject),
		zap.String("email", identity.Email),
		zap.Strings("roles", identity.Roles),
		zap.Bool("local_account", account != nil))

	return identity, nil
}

// Refresh re-authenticates an identity with its stored access token
func (a *TokenAuthenticator) Refresh(ctx context.Context, identity models.Identity) (*models.BearerIdentity, error) {
	bearer, ok := identity.(*models.BearerIdentity)
	if !ok || bearer == nil {
		return nil, NewDomainError(ErrorTypeUnsupported,
			fmt.Sprintf("instances of %T are not supported", identity), nil)
	}

	refreshed, err := a.Authenticate(ctx, bearer.RawAccessToken())
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		return nil, NewDomainError(ErrorTypeNotFound, ErrIdentityNotFound.Message, nil).
			WithDetail("username", bearer.Username())
	}
	return refreshed, nil
}

// Supports reports whether kind is the identity kind this authenticator produces
func (a *TokenAuthenticator) Supports(kind models.IdentityKind) bool {
	return kind == models.IdentityKindKeycloakBearer
}

func (a *TokenAuthenticator) lookupAccount(ctx context.Context, email string) (*models.Account, error) {
	if a.accounts == nil || email == "" {
		return nil, nil
	}

	account, err := a.accounts.FindOneByEmail(ctx, email)
	if err != nil {
		a.logger.Error("account lookup failed", zap.String("email", email), zap.Error(err))
		return nil, WrapInternal("account lookup failed", err)
	}
	return account, nil
}
