package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Role tests
func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"client", RoleClient, true},
		{"provider", RoleProvider, true},
		{"pending_provider", RolePendingProvider, true},
		{"admin", RoleAdmin, true},
		{"user", RoleUser, true},
		{" Admin ", RoleAdmin, true},
		{"authenticated", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleFromClaim(t *testing.T) {
	assert.Equal(t, RoleUser, RoleFromClaim(""))
	assert.Equal(t, RoleUser, RoleFromClaim("authenticated"))
	assert.Equal(t, RoleUser, RoleFromClaim("superuser"))
	assert.Equal(t, RoleAdmin, RoleFromClaim("admin"))
	assert.Equal(t, RolePendingProvider, RoleFromClaim("pending_provider"))

	// claims are not normalised
	assert.Equal(t, RoleUser, RoleFromClaim("ADMIN"))
	assert.Equal(t, RoleUser, RoleFromClaim(" admin"))
}

func TestRole_Valid(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("ADMIN").Valid())
	assert.False(t, Role("").Valid())
}

func TestDecisionTableIsExhaustive(t *testing.T) {
	for _, r := range AllRoles {
		row, ok := decisionTable[r]
		require.True(t, ok, "missing row for role %s", r)
		for _, p := range AllPermissions {
			_, ok := row[p]
			assert.True(t, ok, "missing entry for %s/%s", r, p)
		}
		assert.Len(t, row, len(AllPermissions), "unexpected extra entries for %s", r)
	}
}

func TestRole_Can(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermAdminister, true},
		{RoleClient, PermAdminister, false},
		{RoleUser, PermAdminister, false},
		{RoleProvider, PermManageServices, true},
		{RoleAdmin, PermManageServices, true},
		{RoleClient, PermManageServices, false},
		{RolePendingProvider, PermManageServices, false},
		{RolePendingProvider, PermManageProviderProfile, true},
		{RoleProvider, PermManageProviderProfile, true},
		{RoleClient, PermManageProviderProfile, false},
		{RoleProvider, PermApplyAsProvider, false},
		{RoleClient, PermApplyAsProvider, true},
		{Role("unknown"), PermBrowseCatalog, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.perm), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.perm))
		})
	}
}

func TestRolesWith(t *testing.T) {
	admins := RolesWith(PermAdminister)
	assert.Equal(t, []string{"admin"}, admins.Strings())

	managers := RolesWith(PermManageServices)
	assert.Equal(t, []string{"admin", "provider"}, managers.Strings())
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleAdmin, RoleProvider)
	assert.True(t, set.Contains(RoleAdmin))
	assert.False(t, set.Contains(RoleClient))
	assert.Equal(t, []string{"admin", "provider"}, set.Strings())
}

// Identity tests
func TestNewIdentity(t *testing.T) {
	id := uuid.New()

	ident := NewIdentity(id.String(), "a@example.com", "")
	assert.Equal(t, RoleUser, ident.Role)
	assert.Equal(t, "", ident.RawRole)

	parsed, err := ident.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	assert.True(t, NewIdentity("x", "", "admin").HasRole(NewRoleSet(RoleAdmin)))

	_, err = NewIdentity("not-a-uuid", "", "client").UserID()
	assert.Error(t, err)
}

// Timestamp tests
func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 with offset", `"2024-05-01T10:30:00+02:00"`, time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)},
		{"naive microseconds", `"2024-05-01T10:30:00.123456"`, time.Date(2024, 5, 1, 10, 30, 0, 123456000, time.UTC)},
		{"space separated", `"2024-05-01 10:30:00"`, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

// User tests
func TestNewUser(t *testing.T) {
	id := uuid.New()
	user := NewUser(id, "jane@example.com", "Jane", "Doe", RoleClient)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Jane Doe", user.FullName)
	assert.Equal(t, RoleClient, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, "users", user.TableName())
}

func TestAddress_DecodesStringOrObject(t *testing.T) {
	var fromString, fromObject User
	require.NoError(t, json.Unmarshal([]byte(`{"address":"{\"city\":\"Toronto\"}"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"address":{"city":"Toronto"}}`), &fromObject))

	require.NotNil(t, fromString.Address)
	assert.Equal(t, "Toronto", fromString.Address.City)
	assert.Equal(t, fromString.Address, fromObject.Address)
}

func TestAddress_EncodeDefaultsCountry(t *testing.T) {
	addr := &Address{City: "Ottawa"}
	encoded, err := addr.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Ottawa","country":"Canada"}`, encoded)
	assert.Empty(t, addr.Country)
}

func TestAdminUserUpdate_Fields(t *testing.T) {
	name := "New Name"
	verified := true
	patch, err := AdminUserUpdate{
		UserUpdate: UserUpdate{FullName: &name},
		IsVerified: &verified,
	}.Fields()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"full_name": "New Name", "is_verified": true}, patch)
}

// Service tests
func TestNewService(t *testing.T) {
	provider := uuid.New()
	svc := NewService(provider, "Haircut", "Trim", "hair", 25.456)

	assert.Equal(t, provider, svc.ProviderID)
	assert.Equal(t, 25.46, svc.Price)
	assert.True(t, svc.IsActive)
}

func TestServiceUpdate_Fields(t *testing.T) {
	price := 10.005
	active := false
	patch := ServiceUpdate{Price: &price, IsActive: &active}.Fields()
	assert.Equal(t, map[string]any{"price": 10.01, "is_active": false}, patch)
	assert.Empty(t, ServiceUpdate{}.Fields())
}

// Booking tests
func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusRejected, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusRejected, false},
		{BookingStatusCompleted, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_Cancellable(t *testing.T) {
	assert.True(t, BookingStatusPending.Cancellable())
	assert.True(t, BookingStatusConfirmed.Cancellable())
	assert.False(t, BookingStatusCompleted.Cancellable())
	assert.False(t, BookingStatusCancelled.Cancellable())
}

func TestNewBooking(t *testing.T) {
	client := uuid.New()
	svc := NewService(uuid.New(), "Massage", "", "spa", 80)
	at := NewTimestamp(time.Now().Add(24 * time.Hour))

	b := NewBooking(client, svc, at, nil)

	assert.Equal(t, BookingStatusPending, b.Status)
	assert.Equal(t, svc.ProviderID, b.ProviderID)
	assert.Equal(t, 80.0, b.TotalPrice)
	assert.True(t, b.IsParticipant(client))
	assert.True(t, b.IsParticipant(svc.ProviderID))
	assert.False(t, b.IsParticipant(uuid.New()))
}

// Review tests
func TestSummarizeRatings(t *testing.T) {
	assert.Equal(t, RatingSummary{}, SummarizeRatings(nil))

	reviews := []*Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.Equal(t, RatingSummary{Average: 4.33, Count: 3}, SummarizeRatings(reviews))
}

// AuditLog tests
func TestNewAuditLog(t *testing.T) {
	actor := uuid.New()
	resource := uuid.New()

	log := NewAuditLog(AuditActionBookingCreated, "booking").
		WithActor(actor).
		WithResource(resource).
		WithDetails(map[string]interface{}{"status": "pending"}).
		WithRequest(RequestMeta{RequestID: "req-1", IPAddress: "10.0.0.1"})

	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, &actor, log.ActorID)
	assert.Equal(t, &resource, log.ResourceID)
	assert.JSONEq(t, `{"status":"pending"}`, string(log.Details))
	assert.Equal(t, "req-1", log.RequestID)
	assert.Equal(t, "audit_logs", log.TableName())
}
