// Package review handles client reviews of completed bookings and keeps
// provider rating aggregates current.
package review

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
)

// CreateRequest is the payload of a new review
type CreateRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty" validate:"omitempty,max=4000"`
}

// Service implements reviews
type Service struct {
	reviews  repositories.ReviewRepository
	bookings repositories.BookingRepository
	profiles repositories.ProviderProfileRepository
	tx       repositories.Transactor
	recorder services.Recorder
	logger   *zap.Logger
}

// NewService creates the review service
func NewService(repos *repositories.Repositories, recorder services.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{
		reviews:  repos.Reviews,
		bookings: repos.Bookings,
		profiles: repos.Profiles,
		tx:       repos.Tx,
		recorder: recorder,
		logger:   logger,
	}
}

// Create stores the client's review of a completed booking and refreshes
// the provider's rating aggregate in the same transaction.
func (s *Service) Create(ctx context.Context, clientID uuid.UUID, req CreateRequest) (*models.Review, error) {
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, services.ErrInvalidRating
	}

	review, err := services.WithTransactionResult(ctx, s.tx, func(ctx context.Context) (*models.Review, error) {
		booking, err := s.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return nil, services.FromRepository(err, services.ErrBookingNotFound, nil)
		}
		if booking.ClientID != clientID {
			return nil, services.ErrNotReviewer
		}
		if booking.Status != models.BookingStatusCompleted {
			return nil, services.ErrBookingNotCompleted
		}

		_, err = s.reviews.GetByBookingID(ctx, booking.ID)
		switch {
		case err == nil:
			return nil, services.ErrReviewExists
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, services.FromRepository(err, nil, nil)
		}

		review := models.NewReview(booking, req.Rating, req.Comment)
		if err := s.reviews.Create(ctx, review); err != nil {
			return nil, services.FromRepository(err, nil, services.ErrReviewExists)
		}
		if err := s.refreshRatings(ctx, booking.ProviderID); err != nil {
			return nil, err
		}
		return review, nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionReviewCreated, "review").
		WithActor(clientID).
		WithResource(review.ID).
		WithDetails(map[string]any{"booking_id": review.BookingID, "rating": review.Rating}))
	return review, nil
}

// refreshRatings recomputes the provider's average from every review.
// Providers without a profile have nowhere to store it.
func (s *Service) refreshRatings(ctx context.Context, providerID uuid.UUID) error {
	all, err := s.reviews.ListByProvider(ctx, providerID)
	if err != nil {
		return services.FromRepository(err, nil, nil)
	}
	summary := models.SummarizeRatings(all)
	err = s.profiles.UpdateRatings(ctx, providerID, summary)
	if errors.Is(err, repositories.ErrNotFound) {
		s.logger.Warn("reviewed provider has no profile", zap.String("provider_id", providerID.String()))
		return nil
	}
	if err != nil {
		return services.FromRepository(err, nil, nil)
	}
	s.logger.Debug("provider ratings refreshed",
		zap.String("provider_id", providerID.String()),
		zap.Float64("average", summary.Average),
		zap.Int("count", summary.Count))
	return nil
}

// ListByProvider returns every review of a provider
func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.Review, error) {
	list, err := s.reviews.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	return list, nil
}

// ListByService returns every review of a listing
func (s *Service) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*models.Review, error) {
	list, err := s.reviews.ListByService(ctx, serviceID)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	return list, nil
}
