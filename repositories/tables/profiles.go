package tables

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// ProviderProfileRepository implements repositories.ProviderProfileRepository
type ProviderProfileRepository struct {
	store[models.ProviderProfile]
}

// NewProviderProfileRepository creates a new provider profile repository
func NewProviderProfileRepository(q repositories.TableQuery) repositories.ProviderProfileRepository {
	return &ProviderProfileRepository{store[models.ProviderProfile]{q: q, table: models.ProviderProfile{}.TableName()}}
}

func (r *ProviderProfileRepository) Create(ctx context.Context, p *models.ProviderProfile) error {
	row := map[string]any{
		"id":                  p.ID,
		"user_id":             p.UserID,
		"bio":                 optional(p.Bio),
		"years_of_experience": optional(p.YearsOfExperience),
		"location":            optional(p.Location),
		"ratings_average":     p.RatingsAverage,
		"ratings_count":       p.RatingsCount,
		"created_at":          p.CreatedAt,
	}
	if p.Specialties != nil {
		row["specialties"] = p.Specialties
	}
	if p.Availability != nil {
		row["availability"] = p.Availability
	}
	return r.insert(ctx, row)
}

func (r *ProviderProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	return r.one(ctx, repositories.Eq("user_id", userID))
}

func (r *ProviderProfileRepository) UpdateByUserID(ctx context.Context, userID uuid.UUID, patch map[string]any) (*models.ProviderProfile, error) {
	return r.update(ctx, patch, repositories.Eq("user_id", userID))
}

func (r *ProviderProfileRepository) UpdateRatings(ctx context.Context, userID uuid.UUID, summary models.RatingSummary) error {
	_, err := r.update(ctx, map[string]any{
		"ratings_average": summary.Average,
		"ratings_count":   summary.Count,
	}, repositories.Eq("user_id", userID))
	return err
}
