package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/internal/observability"
	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services"
	"github.com/blazzica/marketplace-api/supabase"
	"github.com/blazzica/marketplace-api/utils"
)

// TokenVerifier validates a bearer token and returns the caller
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// SessionCookieName is set by the login handler
const SessionCookieName = "session"

// ForbiddenMessage is returned when the caller's role is not permitted
const ForbiddenMessage = "insufficient permissions"

// AuthMiddleware provides authentication and authorization hooks
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth verifies the caller's token and stores the identity in the
// request context. Any failure is a 401 with a uniform message.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRoles admits callers whose role is in roles. It reuses an identity
// already verified by RequireAuth and verifies the token itself otherwise.
func (m *AuthMiddleware) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := models.NewRoleSet(roles...)
	return m.gate(allowed.Contains, zap.Strings("allowed_roles", allowed.Strings()))
}

// RequirePermission admits callers whose role grants p
func (m *AuthMiddleware) RequirePermission(p models.Permission) func(http.Handler) http.Handler {
	return m.gate(func(r models.Role) bool { return r.Can(p) }, zap.String("permission", string(p)))
}

func (m *AuthMiddleware) gate(permitted func(models.Role) bool, requirement zap.Field) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := GetIdentityFromContext(ctx)
			if identity == nil {
				var ok bool
				if identity, ok = m.authenticate(w, r); !ok {
					return
				}
				ctx = WithIdentity(ctx, identity)
			}

			if !permitted(identity.Role) {
				observability.ForRequest(ctx, m.logger).Warn("insufficient permissions",
					zap.String("sub", identity.Subject),
					zap.String("role", string(identity.Role)),
					requirement)
				_ = utils.WriteForbidden(w, ForbiddenMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate writes the 401 itself and reports false on failure
func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	ctx := r.Context()
	logger := observability.ForRequest(ctx, m.logger)

	token := ExtractToken(r)
	if token == "" {
		logger.Warn("missing token")
		_ = utils.WriteUnauthorized(w, supabase.InvalidCredentials)
		return nil, false
	}

	identity, err := m.verifier.Verify(ctx, token)
	if err != nil {
		var authErr *supabase.AuthError
		if errors.As(err, &authErr) {
			logger.Debug("authentication rejected", zap.String("reason", authErr.Reason()))
		} else {
			logger.Warn("authentication rejected", zap.Error(err))
		}
		_ = utils.WriteUnauthorized(w, supabase.InvalidCredentials)
		return nil, false
	}

	if identity.RawRole != "" && identity.RawRole != string(identity.Role) {
		logger.Debug("unrecognised role claim", zap.String("claim", identity.RawRole))
	}
	logger.Debug("authentication successful",
		zap.String("sub", identity.Subject),
		zap.String("role", string(identity.Role)))
	return identity, true
}

// RequestMeta attaches the request ID, client address and user agent for
// audit entries. It must run after chi's RequestID and RealIP.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestMeta(r.Context(), models.RequestMeta{
			RequestID: chimiddleware.GetReqID(r.Context()),
			IPAddress: clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// ExtractToken reads the Authorization header, falling back to the session cookie.
// The header takes precedence when both are present.
func ExtractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
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
