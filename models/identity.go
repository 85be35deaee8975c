package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the verified caller extracted from a bearer token.
// It lives for one request and is never persisted.
type Identity struct {
	Subject string `json:"id"`
	Email   string `json:"email,omitempty"`
	Role    Role   `json:"role"`
	// RawRole is the claim as received, kept for logging when it fell back to RoleUser
	RawRole string `json:"-"`
}

// NewIdentity builds an identity, normalising the role claim.
func NewIdentity(subject, email, roleClaim string) *Identity {
	return &Identity{
		Subject: subject,
		Email:   email,
		Role:    RoleFromClaim(roleClaim),
		RawRole: roleClaim,
	}
}

// UserID parses the subject as the user's UUID
func (i *Identity) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(i.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not a uuid: %w", err)
	}
	return id, nil
}

// HasRole reports whether the identity's role is in the allow-list
func (i *Identity) HasRole(allowed RoleSet) bool {
	return allowed.Contains(i.Role)
}
