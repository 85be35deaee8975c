package tables

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// ReviewRepository implements repositories.ReviewRepository
type ReviewRepository struct {
	store[models.Review]
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(q repositories.TableQuery) repositories.ReviewRepository {
	return &ReviewRepository{store[models.Review]{q: q, table: models.Review{}.TableName()}}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	return r.insert(ctx, map[string]any{
		"id":          rv.ID,
		"booking_id":  rv.BookingID,
		"client_id":   rv.ClientID,
		"provider_id": rv.ProviderID,
		"service_id":  rv.ServiceID,
		"rating":      rv.Rating,
		"comment":     optional(rv.Comment),
		"created_at":  rv.CreatedAt,
	})
}

func (r *ReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Review, error) {
	return r.one(ctx, repositories.Eq("booking_id", bookingID))
}

func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.Review, error) {
	return r.list(ctx, repositories.Query{}.Where(repositories.Eq("provider_id", providerID)).OrderBy("created_at", true))
}

func (r *ReviewRepository) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*models.Review, error) {
	return r.list(ctx, repositories.Query{}.Where(repositories.Eq("service_id", serviceID)).OrderBy("created_at", true))
}
