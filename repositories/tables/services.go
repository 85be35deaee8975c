package tables

import (
	"context"
	"fmt"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// ServiceRepository implements repositories.ServiceRepository
type ServiceRepository struct {
	store[models.Service]
}

// NewServiceRepository creates a new service listing repository
func NewServiceRepository(q repositories.TableQuery) repositories.ServiceRepository {
	return &ServiceRepository{store[models.Service]{q: q, table: models.Service{}.TableName()}}
}

func (r *ServiceRepository) Create(ctx context.Context, s *models.Service) error {
	return r.insert(ctx, map[string]any{
		"id":          s.ID,
		"provider_id": s.ProviderID,
		"title":       s.Title,
		"description": s.Description,
		"price":       s.Price,
		"category":    s.Category,
		"is_active":   s.IsActive,
		"created_at":  s.CreatedAt,
	})
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return r.byID(ctx, id)
}

// List applies category, price band, active flag and provider filters
func (r *ServiceRepository) List(ctx context.Context, f models.ServiceFilter) ([]*models.Service, error) {
	q := repositories.Query{}
	if f.Category != "" {
		q = q.Where(repositories.Eq("category", f.Category))
	}
	if f.MinPrice != nil {
		q = q.Where(repositories.Gte("price", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		q = q.Where(repositories.Lte("price", *f.MaxPrice))
	}
	if f.IsActive != nil {
		q = q.Where(repositories.Eq("is_active", *f.IsActive))
	}
	if f.ProviderID != nil {
		q = q.Where(repositories.Eq("provider_id", *f.ProviderID))
	}
	return r.list(ctx, q.OrderBy("created_at", true))
}

func (r *ServiceRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Service, error) {
	return r.update(ctx, patch, repositories.Eq("id", id))
}

func (r *ServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.q.Delete(ctx, r.table, repositories.Eq("id", id)); err != nil {
		return fmt.Errorf("delete from %s: %w", r.table, err)
	}
	return nil
}

func (r *ServiceRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	if activeOnly {
		return r.count(ctx, repositories.Eq("is_active", true))
	}
	return r.count(ctx)
}
