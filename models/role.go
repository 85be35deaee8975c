package models

import (
	"sort"
	"strings"
)

// Role is the closed set of marketplace roles carried in the token role
// claim and in the users table.
type Role string

const (
	// RoleUser is the baseline role for identities without a recognised claim
	RoleUser            Role = "user"
	RoleClient          Role = "client"
	RoleProvider        Role = "provider"
	RolePendingProvider Role = "pending_provider"
	RoleAdmin           Role = "admin"
)

// AllRoles lists every role in a stable order.
var AllRoles = []Role{RoleUser, RoleClient, RoleProvider, RolePendingProvider, RoleAdmin}

// ParseRole returns the role named by s and whether it is a known role.
// Case and surrounding space are ignored; use it for operator input only.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleClient, RoleProvider, RolePendingProvider, RoleAdmin:
		return r, true
	}
	return "", false
}

// RoleFromClaim maps a raw token claim onto the closed set.
// Matching is exact. Missing or unrecognised values fall back to RoleUser.
func RoleFromClaim(claim string) Role {
	if r := Role(claim); r.Valid() {
		return r
	}
	return RoleUser
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleClient, RoleProvider, RolePendingProvider, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Permission names an operation guarded by the role decision table.
type Permission string

const (
	PermBrowseCatalog         Permission = "catalog:browse"
	PermManageOwnAccount      Permission = "account:manage_own"
	PermCreateBooking         Permission = "booking:create"
	PermRespondToBooking      Permission = "booking:respond"
	PermManageServices        Permission = "service:manage"
	PermApplyAsProvider       Permission = "provider:apply"
	PermManageProviderProfile Permission = "provider_profile:manage"
	PermWriteReview           Permission = "review:write"
	PermAdminister            Permission = "admin:access"
)

// AllPermissions lists every permission in a stable order.
var AllPermissions = []Permission{
	PermBrowseCatalog,
	PermManageOwnAccount,
	PermCreateBooking,
	PermRespondToBooking,
	PermManageServices,
	PermApplyAsProvider,
	PermManageProviderProfile,
	PermWriteReview,
	PermAdminister,
}

// decisionTable holds an explicit entry for every (role, permission) pair.
// Anything absent is denied, and tests assert the table is complete.
var decisionTable = map[Role]map[Permission]bool{
	RoleUser: {
		PermBrowseCatalog:         true,
		PermManageOwnAccount:      true,
		PermCreateBooking:         true,
		PermRespondToBooking:      false,
		PermManageServices:        false,
		PermApplyAsProvider:       true,
		PermManageProviderProfile: false,
		PermWriteReview:           true,
		PermAdminister:            false,
	},
	RoleClient: {
		PermBrowseCatalog:         true,
		PermManageOwnAccount:      true,
		PermCreateBooking:         true,
		PermRespondToBooking:      false,
		PermManageServices:        false,
		PermApplyAsProvider:       true,
		PermManageProviderProfile: false,
		PermWriteReview:           true,
		PermAdminister:            false,
	},
	RolePendingProvider: {
		PermBrowseCatalog:         true,
		PermManageOwnAccount:      true,
		PermCreateBooking:         true,
		PermRespondToBooking:      false,
		PermManageServices:        false,
		PermApplyAsProvider:       true,
		PermManageProviderProfile: true,
		PermWriteReview:           true,
		PermAdminister:            false,
	},
	RoleProvider: {
		PermBrowseCatalog:         true,
		PermManageOwnAccount:      true,
		PermCreateBooking:         true,
		PermRespondToBooking:      true,
		PermManageServices:        true,
		PermApplyAsProvider:       false,
		PermManageProviderProfile: true,
		PermWriteReview:           true,
		PermAdminister:            false,
	},
	RoleAdmin: {
		PermBrowseCatalog:         true,
		PermManageOwnAccount:      true,
		PermCreateBooking:         true,
		PermRespondToBooking:      true,
		PermManageServices:        true,
		PermApplyAsProvider:       false,
		PermManageProviderProfile: false,
		PermWriteReview:           true,
		PermAdminister:            true,
	},
}

// Can reports whether the role is granted the permission.
func (r Role) Can(p Permission) bool {
	return decisionTable[r][p]
}

// RolesWith returns every role granted p.
func RolesWith(p Permission) RoleSet {
	set := RoleSet{}
	for _, r := range AllRoles {
		if r.Can(p) {
			set[r] = struct{}{}
		}
	}
	return set
}

// RoleSet is an allow-list of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// Strings returns the members sorted, for logging
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}
