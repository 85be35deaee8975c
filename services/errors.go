package services

import (
	"errors"
	"fmt"

	"github.com/blazzica/marketplace-api/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same type and message
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail returns a copy of the error carrying an extra detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Type: e.Type, Message: e.Message, Err: e.Err, Details: details}
}

// Wrap returns a copy of the error wrapping err
func (e *DomainError) Wrap(err error) *DomainError {
	return &DomainError{Type: e.Type, Message: e.Message, Err: err, Details: e.Details}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// Not Found Errors
	ErrUserNotFound     = NewDomainError(ErrorTypeNotFound, "User not found", nil)
	ErrServiceNotFound  = NewDomainError(ErrorTypeNotFound, "Service not found", nil)
	ErrBookingNotFound  = NewDomainError(ErrorTypeNotFound, "Booking not found", nil)
	ErrProfileNotFound  = NewDomainError(ErrorTypeNotFound, "Provider profile not found", nil)
	ErrNoServicesFound  = NewDomainError(ErrorTypeNotFound, "No services found", nil)
	ErrAuditLogNotFound = NewDomainError(ErrorTypeNotFound, "Audit log not found", nil)

	// Validation Errors
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidSignupRole   = NewDomainError(ErrorTypeValidation, "Role must be either 'client' or 'provider'", nil)
	ErrInvalidRole         = NewDomainError(ErrorTypeValidation, "Unknown role", nil)
	ErrInvalidStatus       = NewDomainError(ErrorTypeValidation, "Unknown booking status", nil)
	ErrInvalidTransition   = NewDomainError(ErrorTypeValidation, "Booking cannot be updated in current status", nil)
	ErrBookingNotEditable  = NewDomainError(ErrorTypeValidation, "Cannot update booking in current status", nil)
	ErrBookingNotCancelled = NewDomainError(ErrorTypeValidation, "Cannot cancel booking in current status", nil)
	ErrBookingNotCompleted = NewDomainError(ErrorTypeValidation, "Can only review completed bookings", nil)
	ErrInvalidRating       = NewDomainError(ErrorTypeValidation, "Rating must be between 1 and 5", nil)
	ErrInvalidResetToken   = NewDomainError(ErrorTypeValidation, "Invalid or expired reset token", nil)
	ErrNothingToUpdate     = NewDomainError(ErrorTypeValidation, "No fields to update", nil)

	// Authorization Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "Invalid authentication credentials", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "Invalid credentials", nil)

	// Permission Errors
	ErrForbidden            = NewDomainError(ErrorTypeForbidden, "Not authorized", nil)
	ErrNotServiceOwner      = NewDomainError(ErrorTypeForbidden, "Not authorized to modify this service", nil)
	ErrNotBookingProvider   = NewDomainError(ErrorTypeForbidden, "Not authorized to update this booking", nil)
	ErrNotBookingClient     = NewDomainError(ErrorTypeForbidden, "Only the client can edit this booking", nil)
	ErrNotBookingMember     = NewDomainError(ErrorTypeForbidden, "Not authorized to access this booking", nil)
	ErrNotReviewer          = NewDomainError(ErrorTypeForbidden, "Only the client can review a booking", nil)
	ErrCannotCreateServices = NewDomainError(ErrorTypeForbidden, "Only providers and admins can create services", nil)
	ErrNotProvider          = NewDomainError(ErrorTypeForbidden, "Only providers can manage provider profiles", nil)
	ErrCannotApply          = NewDomainError(ErrorTypeForbidden, "Account cannot apply to become a provider", nil)

	// Conflict Errors
	ErrAccountExists = NewDomainError(ErrorTypeConflict, "An account with this email already exists", nil)
	ErrProfileExists = NewDomainError(ErrorTypeConflict, "Provider profile already exists", nil)
	ErrReviewExists  = NewDomainError(ErrorTypeConflict, "Review already exists for this booking", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)

	// External Errors
	ErrIdentityProvider = NewDomainError(ErrorTypeExternal, "identity provider request failed", nil)
)

// FromRepository translates a repository error. ErrNotFound becomes
// notFound, ErrConflict becomes conflict, anything else is internal.
func FromRepository(err error, notFound, conflict *DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return notFound.Wrap(err)
	case errors.Is(err, repositories.ErrConflict) && conflict != nil:
		return conflict.Wrap(err)
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return ErrDatabaseError.Wrap(err)
}

func isType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return isType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return isType(err, ErrorTypeConflict) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return isType(err, ErrorTypeInternal) }

// IsExternalError checks if an error is an upstream service error
func IsExternalError(err error) bool { return isType(err, ErrorTypeExternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an upstream service error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// Validation returns a validation error with a custom message
func Validation(message string) error {
	return NewDomainError(ErrorTypeValidation, message, nil)
}
