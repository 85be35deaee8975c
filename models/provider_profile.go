package models

import (
	"github.com/google/uuid"
)

// ProviderProfile is the public profile of a provider, one per user
type ProviderProfile struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	Bio               *string        `json:"bio,omitempty"`
	YearsOfExperience *int           `json:"years_of_experience,omitempty"`
	Location          *string        `json:"location,omitempty"`
	Specialties       []string       `json:"specialties,omitempty"`
	Availability      map[string]any `json:"availability,omitempty"`
	RatingsAverage    float64        `json:"ratings_average"`
	RatingsCount      int            `json:"ratings_count"`
	CreatedAt         Timestamp      `json:"created_at"`
	UpdatedAt         *Timestamp     `json:"updated_at,omitempty"`
}

// TableName returns the table name for the ProviderProfile model
func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// ProviderProfileInput carries the editable profile fields
type ProviderProfileInput struct {
	Bio               *string        `json:"bio,omitempty" validate:"omitempty,max=4000"`
	YearsOfExperience *int           `json:"years_of_experience,omitempty" validate:"omitempty,gte=0,lte=80"`
	Location          *string        `json:"location,omitempty" validate:"omitempty,max=200"`
	Specialties       []string       `json:"specialties,omitempty" validate:"omitempty,dive,min=1,max=100"`
	Availability      map[string]any `json:"availability,omitempty"`
}

// NewProviderProfile creates a profile with zeroed ratings
func NewProviderProfile(userID uuid.UUID, in ProviderProfileInput) *ProviderProfile {
	return &ProviderProfile{
		ID:                uuid.New(),
		UserID:            userID,
		Bio:               in.Bio,
		YearsOfExperience: in.YearsOfExperience,
		Location:          in.Location,
		Specialties:       in.Specialties,
		Availability:      in.Availability,
		CreatedAt:         Now(),
	}
}

// Fields returns the column patch for the set fields
func (in ProviderProfileInput) Fields() map[string]any {
	patch := map[string]any{}
	if in.Bio != nil {
		patch["bio"] = *in.Bio
	}
	if in.YearsOfExperience != nil {
		patch["years_of_experience"] = *in.YearsOfExperience
	}
	if in.Location != nil {
		patch["location"] = *in.Location
	}
	if in.Specialties != nil {
		patch["specialties"] = in.Specialties
	}
	if in.Availability != nil {
		patch["availability"] = in.Availability
	}
	return patch
}
