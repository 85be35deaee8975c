package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blazzica/marketplace-api/repositories"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "same sentinel", err: ErrBookingNotFound, target: ErrBookingNotFound, want: true},
		{name: "wrapped copy", err: ErrBookingNotFound.Wrap(errors.New("no rows")), target: ErrBookingNotFound, want: true},
		{name: "fmt wrapped", err: fmt.Errorf("ctx: %w", ErrReviewExists), target: ErrReviewExists, want: true},
		{name: "same type different message", err: ErrBookingNotFound, target: ErrServiceNotFound, want: false},
		{name: "different forbidden reasons", err: ErrNotBookingClient, target: ErrNotBookingProvider, want: false},
		{name: "plain error", err: errors.New("x"), target: ErrInternal, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	detailed := ErrInvalidTransition.WithDetail("from", "completed")

	assert.Equal(t, "completed", detailed.Details["from"])
	assert.NotContains(t, ErrInvalidTransition.Details, "from")
	assert.ErrorIs(t, detailed, ErrInvalidTransition)
}

func TestDomainError_WrapDoesNotMutateSentinel(t *testing.T) {
	cause := errors.New("upstream 502")
	wrapped := ErrIdentityProvider.Wrap(cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, ErrIdentityProvider.Err)
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name  string
		check func(error) bool
		yes   []error
		no    []error
	}{
		{
			name:  "not found",
			check: IsNotFoundError,
			yes:   []error{ErrUserNotFound, ErrServiceNotFound, ErrBookingNotFound, ErrProfileNotFound, fmt.Errorf("w: %w", ErrNoServicesFound)},
			no:    []error{ErrInvalidInput, errors.New("plain")},
		},
		{
			name:  "validation",
			check: IsValidationError,
			yes:   []error{ErrInvalidInput, ErrInvalidSignupRole, ErrInvalidTransition, ErrInvalidRating, Validation("bad")},
			no:    []error{ErrBookingNotFound},
		},
		{
			name:  "unauthorized",
			check: IsUnauthorizedError,
			yes:   []error{ErrUnauthorized, ErrInvalidCredentials},
			no:    []error{ErrForbidden},
		},
		{
			name:  "forbidden",
			check: IsForbiddenError,
			yes:   []error{ErrForbidden, ErrNotServiceOwner, ErrNotBookingMember, ErrNotReviewer, ErrCannotCreateServices, ErrNotProvider, ErrCannotApply},
			no:    []error{ErrUnauthorized},
		},
		{
			name:  "conflict",
			check: IsConflictError,
			yes:   []error{ErrAccountExists, ErrProfileExists, ErrReviewExists},
			no:    []error{ErrInvalidInput},
		},
		{
			name:  "internal",
			check: IsInternalError,
			yes:   []error{ErrInternal, ErrDatabaseError, WrapInternal("boom", nil)},
			no:    []error{ErrIdentityProvider},
		},
		{
			name:  "external",
			check: IsExternalError,
			yes:   []error{ErrIdentityProvider, WrapExternal("gateway", errors.New("502"))},
			no:    []error{ErrInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, err := range tt.yes {
				assert.True(t, tt.check(err), "%v", err)
			}
			for _, err := range tt.no {
				assert.False(t, tt.check(err), "%v", err)
			}
		})
	}
}

func TestFromRepository(t *testing.T) {
	notFound := fmt.Errorf("select from bookings: %w", repositories.ErrNotFound)
	conflict := fmt.Errorf("insert into reviews: %w", repositories.ErrConflict)

	assert.NoError(t, FromRepository(nil, ErrBookingNotFound, nil))
	assert.ErrorIs(t, FromRepository(notFound, ErrBookingNotFound, nil), ErrBookingNotFound)
	assert.ErrorIs(t, FromRepository(conflict, nil, ErrReviewExists), ErrReviewExists)

	t.Run("unmapped sentinels become internal", func(t *testing.T) {
		err := FromRepository(notFound, nil, nil)
		assert.True(t, IsInternalError(err))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		assert.Equal(t, ErrNotReviewer, FromRepository(ErrNotReviewer, nil, nil))
	})

	t.Run("other failures become database errors", func(t *testing.T) {
		err := FromRepository(errors.New("connection reset"), ErrBookingNotFound, nil)
		assert.ErrorIs(t, err, ErrDatabaseError)
	})
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrBookingNotFound))
	assert.Equal(t, ErrorTypeConflict, GetErrorType(fmt.Errorf("w: %w", ErrReviewExists)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "Cannot cancel booking in current status", GetErrorMessage(ErrBookingNotCancelled))
	assert.Empty(t, GetErrorMessage(errors.New("plain")))
}

func TestGetErrorDetails(t *testing.T) {
	err := ErrInvalidRole.WithDetail("allowed", []string{"client"})

	details := GetErrorDetails(fmt.Errorf("w: %w", err))
	require.NotNil(t, details)
	assert.Equal(t, []string{"client"}, details["allowed"])
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}

func TestSentinelMessagesAreUnique(t *testing.T) {
	all := []*DomainError{
		ErrUserNotFound, ErrServiceNotFound, ErrBookingNotFound, ErrProfileNotFound, ErrNoServicesFound, ErrAuditLogNotFound,
		ErrInvalidInput, ErrInvalidSignupRole, ErrInvalidRole, ErrInvalidStatus, ErrInvalidTransition, ErrBookingNotEditable,
		ErrBookingNotCancelled, ErrBookingNotCompleted, ErrInvalidRating, ErrInvalidResetToken, ErrNothingToUpdate,
		ErrUnauthorized, ErrInvalidCredentials,
		ErrForbidden, ErrNotServiceOwner, ErrNotBookingProvider, ErrNotBookingClient, ErrNotBookingMember, ErrNotReviewer,
		ErrCannotCreateServices, ErrNotProvider, ErrCannotApply,
		ErrAccountExists, ErrProfileExists, ErrReviewExists,
		ErrInternal, ErrDatabaseError, ErrIdentityProvider,
	}

	seen := map[string]bool{}
	for _, err := range all {
		key := string(err.Type) + "/" + err.Message
		assert.False(t, seen[key], "duplicate sentinel %s", key)
		seen[key] = true
	}
}
