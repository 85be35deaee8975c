package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Address is a postal address. The users table stores it as JSON text.
type Address struct {
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	Province      string `json:"province,omitempty"`
	Country       string `json:"country,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
}

// UnmarshalJSON accepts either an object or a string holding JSON
func (a *Address) UnmarshalJSON(data []byte) error {
	type plain Address
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if strings.TrimSpace(encoded) == "" {
			*a = Address{}
			return nil
		}
		data = []byte(encoded)
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	*a = Address(p)
	return nil
}

// Encode returns the JSON text stored in the address column
func (a *Address) Encode() (string, error) {
	if a == nil {
		return "", nil
	}
	c := *a
	if c.Country == "" {
		c.Country = "Canada"
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// User is a marketplace account row. ID equals the identity provider subject.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Address     *Address   `json:"address,omitempty"`
	Role        Role       `json:"role"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User row for a freshly signed up identity
func NewUser(id uuid.UUID, email, firstName, lastName string, role Role) *User {
	return &User{
		ID:        id,
		Email:     email,
		FullName:  strings.TrimSpace(firstName + " " + lastName),
		Role:      role,
		CreatedAt: Now(),
	}
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate is a partial update of a user's own profile
type UserUpdate struct {
	FullName    *string  `json:"full_name,omitempty" validate:"omitempty,notblank,max=200"`
	PhoneNumber *string  `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Address     *Address `json:"address,omitempty"`
}

// Fields returns the column patch for the set fields
func (u UserUpdate) Fields() (map[string]any, error) {
	patch := map[string]any{}
	if u.FullName != nil {
		patch["full_name"] = *u.FullName
	}
	if u.PhoneNumber != nil {
		patch["phone_number"] = *u.PhoneNumber
	}
	if u.Address != nil {
		encoded, err := u.Address.Encode()
		if err != nil {
			return nil, fmt.Errorf("encode address: %w", err)
		}
		patch["address"] = encoded
	}
	return patch, nil
}

// AdminUserUpdate is the patch an administrator may apply to any user.
// Role changes go through the dedicated role endpoint so they are audited.
type AdminUserUpdate struct {
	UserUpdate
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	IsVerified *bool   `json:"is_verified,omitempty"`
}

// Fields returns the column patch for the set fields
func (u AdminUserUpdate) Fields() (map[string]any, error) {
	patch, err := u.UserUpdate.Fields()
	if err != nil {
		return nil, err
	}
	if u.Email != nil {
		patch["email"] = *u.Email
	}
	if u.IsVerified != nil {
		patch["is_verified"] = *u.IsVerified
	}
	return patch, nil
}

// UserFilter narrows an administrative user listing
type UserFilter struct {
	Role       *Role
	IsVerified *bool
	Offset     int
	Limit      int
}
