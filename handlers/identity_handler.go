package handlers

import (
	"context"
	"net/http"

	"github.com/upb/keycloak-gateway/middleware"
	"github.com/upb/keycloak-gateway/models"
	"github.com/upb/keycloak-gateway/utils"
	"go.uber.org/zap"
)

// IdentityRefresher re-authenticates an identity with its stored token
type IdentityRefresher interface {
	Refresh(ctx context.Context, identity models.Identity) (*models.BearerIdentity, error)
}

// IdentityResponse is the response body for the current identity
type IdentityResponse struct {
	Kind       string          `json:"kind"`
	Username   string          `json:"username"`
	Subject    string          `json:"sub"`
	Email      string          `json:"email"`
	GivenName  string          `json:"given_name,omitempty"`
	FamilyName string          `json:"family_name,omitempty"`
	FullName   string          `json:"full_name,omitempty"`
	ClientID   string          `json:"client_id,omitempty"`
	Roles      []string        `json:"roles"`
	Account    *models.Account `json:"account,omitempty"`
}

// NewIdentityResponse converts an identity into its response body
func NewIdentityResponse(identity *models.BearerIdentity) IdentityResponse {
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	return IdentityResponse{
		Kind:       string(identity.Kind()),
		Username:   identity.Username(),
		Subject:    identity.Subject,
		Email:      identity.Email,
		GivenName:  identity.GivenName,
		FamilyName: identity.FamilyName,
		FullName:   identity.FullName(),
		ClientID:   identity.ClientID,
		Roles:      roles,
		Account:    identity.Account,
	}
}

// IdentityHandler serves the authenticated caller's identity
type IdentityHandler struct {
	refresher IdentityRefresher
	logger    *zap.Logger
}

// NewIdentityHandler creates a new IdentityHandler
func NewIdentityHandler(refresher IdentityRefresher, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{
		refresher: refresher,
		logger:    logger,
	}
}

// HandleMe handles GET /api/v1/me
func (h *IdentityHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, utils.BearerChallenge{}, "Authentication required")
		return
	}

	if err := utils.WriteOK(w, NewIdentityResponse(identity)); err != nil {
		h.logger.Error("failed to write identity response", zap.Error(err))
	}
}

// HandleRefresh handles POST /api/v1/me/refresh
// The token is introspected again, so revocations and role changes since the request began are visible.
func (h *IdentityHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := middleware.GetIdentityFromContext(ctx)
	if identity == nil {
		_ = utils.WriteUnauthorized(w, utils.BearerChallenge{}, "Authentication required")
		return
	}

	refreshed, err := h.refresher.Refresh(ctx, identity)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("identity refreshed",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("email", refreshed.Email),
		zap.Strings("roles", refreshed.Roles))

	if err := utils.WriteOK(w, NewIdentityResponse(refreshed)); err != nil {
		h.logger.Error("failed to write identity response", zap.Error(err))
	}
}
