package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionUserSignedUp         AuditAction = "user_signed_up"
	AuditActionUserUpdated          AuditAction = "user_updated"
	AuditActionUserRoleChanged      AuditAction = "user_role_changed"
	AuditActionProviderApplied      AuditAction = "provider_applied"
	AuditActionProviderProfileSaved AuditAction = "provider_profile_saved"
	AuditActionServiceCreated       AuditAction = "service_created"
	AuditActionServiceUpdated       AuditAction = "service_updated"
	AuditActionServiceDeleted       AuditAction = "service_deleted"
	AuditActionBookingCreated       AuditAction = "booking_created"
	AuditActionBookingUpdated       AuditAction = "booking_updated"
	AuditActionBookingStatusChanged AuditAction = "booking_status_changed"
	AuditActionBookingCancelled     AuditAction = "booking_cancelled"
	AuditActionReviewCreated        AuditAction = "review_created"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	Action       AuditAction     `json:"action"`
	ResourceType string          `json:"resource_type"` // booking, service, user, review
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	CreatedAt    Timestamp       `json:"created_at"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		CreatedAt:    Now(),
	}
}

// WithActor sets the acting user
func (a *AuditLog) WithActor(actorID uuid.UUID) *AuditLog {
	a.ActorID = &actorID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(meta RequestMeta) *AuditLog {
	a.RequestID = meta.RequestID
	a.IPAddress = meta.IPAddress
	a.UserAgent = meta.UserAgent
	return a
}

// RequestMeta identifies the HTTP request that caused a change
type RequestMeta struct {
	RequestID string
	IPAddress string
	UserAgent string
}
