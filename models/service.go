package models

import (
	"math"

	"github.com/google/uuid"
)

// Service is a listing offered by a provider
type Service struct {
	ID          uuid.UUID  `json:"id"`
	ProviderID  uuid.UUID  `json:"provider_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// TableName returns the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// NewService creates an active listing owned by providerID
func NewService(providerID uuid.UUID, title, description, category string, price float64) *Service {
	return &Service{
		ID:          uuid.New(),
		ProviderID:  providerID,
		Title:       title,
		Description: description,
		Price:       RoundPrice(price),
		Category:    category,
		IsActive:    true,
		CreatedAt:   Now(),
	}
}

// RoundPrice rounds to cents
func RoundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

// ServiceUpdate is a partial update of a listing
type ServiceUpdate struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,notblank,max=100"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// Fields returns the column patch for the set fields
func (u ServiceUpdate) Fields() map[string]any {
	patch := map[string]any{}
	if u.Title != nil {
		patch["title"] = *u.Title
	}
	if u.Description != nil {
		patch["description"] = *u.Description
	}
	if u.Price != nil {
		patch["price"] = RoundPrice(*u.Price)
	}
	if u.Category != nil {
		patch["category"] = *u.Category
	}
	if u.IsActive != nil {
		patch["is_active"] = *u.IsActive
	}
	return patch
}

// ServiceFilter narrows a catalog listing
type ServiceFilter struct {
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	IsActive   *bool
	ProviderID *uuid.UUID
}

// ServiceWithPriceRange is a listing plus the price span of active
// listings in the same category.
type ServiceWithPriceRange struct {
	Service
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
}

// ProviderListing merges a provider's account, profile and matching services
type ProviderListing struct {
	User     *User            `json:"user"`
	Profile  *ProviderProfile `json:"profile,omitempty"`
	Services []*Service       `json:"services"`
}
