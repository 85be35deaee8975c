package repositories

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
	"github.com/google/uuid"
)

// UserRepository handles marketplace account rows
type UserRepository interface {
	// Create inserts the row created at signup
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// List returns users matching the filter, paged by offset and limit
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)

	// Update applies a column patch and returns the updated row
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.User, error)

	// Count counts users, optionally only those with role
	Count(ctx context.Context, role *models.Role) (int, error)
}

// ServiceRepository handles service listings
type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)

	// List returns listings matching the filter, newest first
	List(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, error)

	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Service, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts listings, optionally only active ones
	Count(ctx context.Context, activeOnly bool) (int, error)
}

// BookingRepository handles bookings
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// ListByClient returns bookings made by the client, optionally filtered by status
	ListByClient(ctx context.Context, clientID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error)

	// ListByProvider returns bookings received by the provider, optionally filtered by status
	ListByProvider(ctx context.Context, providerID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error)

	// ListByPaymentStatus returns bookings with the payment status
	ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Booking, error)

	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Booking, error)

	// Count counts bookings, optionally only those with status
	Count(ctx context.Context, status *models.BookingStatus) (int, error)
}

// ReviewRepository handles reviews
type ReviewRepository interface {
	// Create inserts a review; ErrConflict when the booking already has one
	Create(ctx context.Context, review *models.Review) error

	// GetByBookingID returns ErrNotFound when the booking has no review
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Review, error)

	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.Review, error)
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]*models.Review, error)
}

// ProviderProfileRepository handles provider profiles
type ProviderProfileRepository interface {
	Create(ctx context.Context, profile *models.ProviderProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error)
	UpdateByUserID(ctx context.Context, userID uuid.UUID, patch map[string]any) (*models.ProviderProfile, error)

	// UpdateRatings stores a recomputed rating aggregate
	UpdateRatings(ctx context.Context, userID uuid.UUID, summary models.RatingSummary) error
}

// AuditRepository handles audit log persistence
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// List returns entries newest first
	List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// Transactor runs fn atomically when the backend supports transactions.
// Backends without them run fn directly.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories groups every repository the services need
type Repositories struct {
	Users     UserRepository
	Services  ServiceRepository
	Bookings  BookingRepository
	Reviews   ReviewRepository
	Profiles  ProviderProfileRepository
	AuditLogs AuditRepository
	Tx        Transactor
}
