package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/keycloak-gateway/models"
	"github.com/upb/keycloak-gateway/services"
	"github.com/upb/keycloak-gateway/utils"
	"go.uber.org/zap"
)

// Authenticator turns a bearer token into an identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.BearerIdentity, error)
}

// AuthObserver receives the result of every authentication attempt
type AuthObserver interface {
	ObserveAuthentication(result string)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	authenticator Authenticator
	observer      AuthObserver
	realm         string
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// WithObserver records authentication results
func (m *AuthMiddleware) WithObserver(observer AuthObserver) *AuthMiddleware {
	m.observer = observer
	return m
}

// WithRealm names the realm in WWW-Authenticate challenges
func (m *AuthMiddleware) WithRealm(realm string) *AuthMiddleware {
	m.realm = realm
	return m
}

// authTokenCookieName is the cookie checked when no Authorization header is sent
const authTokenCookieName = "auth_token"

const (
	resultSuccess      = "success"
	resultMissingToken = "missing_token"
)

// RequireAuth is a middleware that requires a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Warn("missing token",
				zap.String("request_id", requestID))
			m.observe(resultMissingToken)
			// No error code when the request carried no credentials
			_ = utils.WriteUnauthorized(w, m.challenge("", ""), "Missing or invalid authorization")
			return
		}

		identity, err := m.authenticator.Authenticate(ctx, token)
		if err != nil {
			m.logger.Warn("token authentication failed",
				zap.String("request_id", requestID),
				zap.String("error_type", string(services.GetErrorType(err))),
				zap.Error(err))
			m.observe(resultOf(err))
			m.writeAuthError(w, err)
			return
		}

		ctx = WithIdentity(ctx, identity)
		m.observe(resultSuccess)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", identity.Subject),
			zap.String("email", identity.Email))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is a middleware that requires a specific role.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			identity := GetIdentityFromContext(ctx)
			if identity == nil {
				m.logger.Error("identity not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, m.challenge("", ""), "Authentication required")
				return
			}

			if !identity.HasRole(role) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("required_role", role),
					zap.Strings("roles", identity.Roles))
				_ = utils.WriteForbidden(w,
					m.challenge(utils.BearerInsufficientScope, "role "+role+" is required"),
					"Insufficient permissions", nil)
				return
			}

			m.logger.Debug("role check passed",
				zap.String("request_id", requestID),
				zap.String("required_role", role))

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError maps authentication failures to HTTP responses.
// Unlike handlers, a missing identity here means the token is unusable, so it is a 401.
func (m *AuthMiddleware) writeAuthError(w http.ResponseWriter, err error) {
	var writeErr error
	switch services.GetErrorType(err) {
	case services.ErrorTypeUnauthorized, services.ErrorTypeNotFound:
		writeErr = utils.WriteUnauthorized(w,
			m.challenge(utils.BearerInvalidToken, "token is inactive or has no usable identity"),
			"Invalid or expired token")
	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w,
			m.challenge(utils.BearerInsufficientScope, "token grants no access to this client"),
			"Insufficient permissions", services.GetErrorDetails(err))
	case services.ErrorTypeExternal:
		writeErr = utils.WriteBadGateway(w, "Identity provider unavailable")
	default:
		m.logger.Error("authentication error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "")
	}
	if writeErr != nil {
		m.logger.Error("failed to write auth error response", zap.Error(writeErr))
	}
}

func (m *AuthMiddleware) challenge(code, description string) utils.BearerChallenge {
	return utils.BearerChallenge{Realm: m.realm, Error: code, Description: description}
}

func (m *AuthMiddleware) observe(result string) {
	if m.observer != nil {
		m.observer.ObserveAuthentication(result)
	}
}

func resultOf(err error) string {
	if errType := services.GetErrorType(err); errType != "" {
		return string(errType)
	}
	return string(services.ErrorTypeInternal)
}

// extractToken reads the bearer token from the Authorization header, then the auth_token cookie
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
