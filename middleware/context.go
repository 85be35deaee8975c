package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/blazzica/marketplace-api/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the verified caller
	IdentityKey contextKey = "identity"
)

// GetIdentityFromContext retrieves the verified caller from context
func GetIdentityFromContext(ctx context.Context) *models.Identity {
	if val := ctx.Value(IdentityKey); val != nil {
		if identity, ok := val.(*models.Identity); ok {
			return identity
		}
	}
	return nil
}

// WithIdentity adds the verified caller to the context
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetUserIDFromContext returns the caller's user ID, or uuid.Nil when the
// request is anonymous or the subject is not a UUID
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	identity := GetIdentityFromContext(ctx)
	if identity == nil {
		return uuid.Nil
	}
	id, err := identity.UserID()
	if err != nil {
		return uuid.Nil
	}
	return id
}
