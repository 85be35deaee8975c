package models

import (
	"math"

	"github.com/google/uuid"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a client's rating of a completed booking
type Review struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// TableName returns the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a review for the booking
func NewReview(booking *Booking, rating int, comment *string) *Review {
	return &Review{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		ClientID:   booking.ClientID,
		ProviderID: booking.ProviderID,
		ServiceID:  booking.ServiceID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  Now(),
	}
}

// RatingSummary is the aggregate stored on a provider profile
type RatingSummary struct {
	Average float64
	Count   int
}

// SummarizeRatings averages the reviews, rounded to two decimals
func SummarizeRatings(reviews []*Review) RatingSummary {
	if len(reviews) == 0 {
		return RatingSummary{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))
	return RatingSummary{
		Average: math.Round(avg*100) / 100,
		Count:   len(reviews),
	}
}
