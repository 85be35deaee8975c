// Package booking manages reservations between clients and providers.
package booking

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
)

// CreateRequest is the payload of a new booking
type CreateRequest struct {
	ServiceID   uuid.UUID        `json:"service_id" validate:"required"`
	ScheduledAt models.Timestamp `json:"scheduled_at" validate:"required"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Service implements the booking lifecycle
type Service struct {
	bookings repositories.BookingRepository
	catalog  repositories.ServiceRepository
	recorder services.Recorder
	logger   *zap.Logger
}

// NewService creates the booking service
func NewService(repos *repositories.Repositories, recorder services.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{
		bookings: repos.Bookings,
		catalog:  repos.Services,
		recorder: recorder,
		logger:   logger,
	}
}

// Create books a service for the client at the listed price
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, req CreateRequest) (*models.Booking, error) {
	if req.ScheduledAt.IsZero() {
		return nil, services.Validation("scheduled_at is required")
	}
	listing, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrServiceNotFound, nil)
	}

	booking := models.NewBooking(clientID, listing, req.ScheduledAt, req.Notes)
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("service_id", listing.ID.String()))
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionBookingCreated, "booking").
		WithActor(clientID).
		WithResource(booking.ID).
		WithDetails(map[string]any{"service_id": listing.ID, "total_price": booking.TotalPrice}))
	return booking, nil
}

// List returns every booking the user takes part in, as client or provider,
// newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	asClient, err := s.bookings.ListByClient(ctx, userID, status)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	asProvider, err := s.bookings.ListByProvider(ctx, userID, status)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}

	seen := make(map[uuid.UUID]bool, len(asClient)+len(asProvider))
	out := make([]*models.Booking, 0, len(asClient)+len(asProvider))
	for _, b := range append(asClient, asProvider...) {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out, nil
}

// Get returns a booking to one of its participants
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(userID) {
		return nil, services.ErrNotBookingMember
	}
	return booking, nil
}

// UpdateStatus lets the provider confirm, reject or complete a booking
func (s *Service) UpdateStatus(ctx context.Context, providerID, id uuid.UUID, status string) (*models.Booking, error) {
	next, ok := models.ParseBookingStatus(status)
	if !ok {
		return nil, services.ErrInvalidStatus
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != providerID {
		return nil, services.ErrNotBookingProvider
	}
	if !booking.Status.CanTransitionTo(next) {
		return nil, services.ErrInvalidTransition.
			WithDetail("from", booking.Status).
			WithDetail("to", next)
	}

	updated, err := s.bookings.Update(ctx, id, map[string]any{"status": next})
	if err != nil {
		return nil, services.FromRepository(err, services.ErrBookingNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionBookingStatusChanged, "booking").
		WithActor(providerID).
		WithResource(id).
		WithDetails(map[string]any{"from": booking.Status, "to": next}))
	return updated, nil
}

// Update lets the client reschedule or annotate a pending booking
func (s *Service) Update(ctx context.Context, clientID, id uuid.UUID, update models.BookingUpdate) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != clientID {
		return nil, services.ErrNotBookingClient
	}
	if booking.Status != models.BookingStatusPending {
		return nil, services.ErrBookingNotEditable
	}
	patch := update.Fields()
	if len(patch) == 0 {
		return booking, nil
	}

	updated, err := s.bookings.Update(ctx, id, patch)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrBookingNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionBookingUpdated, "booking").
		WithActor(clientID).
		WithResource(id).
		WithDetails(patch))
	return updated, nil
}

// Cancel lets either participant cancel a booking that has not finished
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !booking.Status.Cancellable() {
		return nil, services.ErrBookingNotCancelled
	}

	updated, err := s.bookings.Update(ctx, id, map[string]any{"status": models.BookingStatusCancelled})
	if err != nil {
		return nil, services.FromRepository(err, services.ErrBookingNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionBookingCancelled, "booking").
		WithActor(userID).
		WithResource(id).
		WithDetails(map[string]any{"previous_status": booking.Status}))
	return updated, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrBookingNotFound, nil)
	}
	return booking, nil
}
