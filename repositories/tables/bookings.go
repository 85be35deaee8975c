package tables

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// BookingRepository implements repositories.BookingRepository
type BookingRepository struct {
	store[models.Booking]
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(q repositories.TableQuery) repositories.BookingRepository {
	return &BookingRepository{store[models.Booking]{q: q, table: models.Booking{}.TableName()}}
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return r.insert(ctx, map[string]any{
		"id":             b.ID,
		"service_id":     b.ServiceID,
		"client_id":      b.ClientID,
		"provider_id":    b.ProviderID,
		"status":         b.Status,
		"scheduled_at":   b.ScheduledAt,
		"notes":          optional(b.Notes),
		"total_price":    b.TotalPrice,
		"payment_status": b.PaymentStatus,
		"created_at":     b.CreatedAt,
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.byID(ctx, id)
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	return r.listBy(ctx, "client_id", clientID, status)
}

func (r *BookingRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	return r.listBy(ctx, "provider_id", providerID, status)
}

func (r *BookingRepository) listBy(ctx context.Context, column string, id uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	q := repositories.Query{}.Where(repositories.Eq(column, id))
	if status != nil {
		q = q.Where(repositories.Eq("status", *status))
	}
	return r.list(ctx, q.OrderBy("created_at", true))
}

func (r *BookingRepository) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Booking, error) {
	return r.list(ctx, repositories.Query{}.Where(repositories.Eq("payment_status", status)))
}

func (r *BookingRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Booking, error) {
	return r.update(ctx, patch, repositories.Eq("id", id))
}

func (r *BookingRepository) Count(ctx context.Context, status *models.BookingStatus) (int, error) {
	if status == nil {
		return r.count(ctx)
	}
	return r.count(ctx, repositories.Eq("status", *status))
}
