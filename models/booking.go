package models

import (
	"github.com/google/uuid"
)

// BookingStatus represents where a booking is in its lifecycle
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus is owned by the payment processor; this service only reads it
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// providerTransitions lists the status changes a provider may make
var providerTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected},
	BookingStatusConfirmed: {BookingStatusCompleted},
}

// ParseBookingStatus validates a status string
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(s)
	switch st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected,
		BookingStatusCompleted, BookingStatusCancelled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether a provider may move a booking from s to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range providerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether a participant may still cancel
func (s BookingStatus) Cancellable() bool {
	return s != BookingStatusCompleted && s != BookingStatusCancelled
}

// Booking is a client's reservation of a service
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	ServiceID     uuid.UUID     `json:"service_id"`
	ClientID      uuid.UUID     `json:"client_id"`
	ProviderID    uuid.UUID     `json:"provider_id"`
	Status        BookingStatus `json:"status"`
	ScheduledAt   Timestamp     `json:"scheduled_at"`
	Notes         *string       `json:"notes,omitempty"`
	TotalPrice    float64       `json:"total_price"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	CreatedAt     Timestamp     `json:"created_at"`
	UpdatedAt     *Timestamp    `json:"updated_at,omitempty"`
}

// TableName returns the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// NewBooking creates a pending booking priced from the service
func NewBooking(client uuid.UUID, service *Service, scheduledAt Timestamp, notes *string) *Booking {
	return &Booking{
		ID:            uuid.New(),
		ServiceID:     service.ID,
		ClientID:      client,
		ProviderID:    service.ProviderID,
		Status:        BookingStatusPending,
		ScheduledAt:   scheduledAt,
		Notes:         notes,
		TotalPrice:    service.Price,
		PaymentStatus: PaymentStatusPending,
		CreatedAt:     Now(),
	}
}

// IsParticipant reports whether userID is the client or the provider
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return b.ClientID == userID || b.ProviderID == userID
}

// BookingUpdate is the client's edit of a pending booking
type BookingUpdate struct {
	ScheduledAt *Timestamp `json:"scheduled_at,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Fields returns the column patch for the set fields
func (u BookingUpdate) Fields() map[string]any {
	patch := map[string]any{}
	if u.ScheduledAt != nil {
		patch["scheduled_at"] = *u.ScheduledAt
	}
	if u.Notes != nil {
		patch["notes"] = *u.Notes
	}
	return patch
}
