package tables

import (
	"context"
	"fmt"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/google/uuid"
)

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	store[models.User]
}

// NewUserRepository creates a new user repository
func NewUserRepository(q repositories.TableQuery) repositories.UserRepository {
	return &UserRepository{store[models.User]{q: q, table: models.User{}.TableName()}}
}

// Create inserts a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	row := map[string]any{
		"id":           user.ID,
		"email":        user.Email,
		"full_name":    user.FullName,
		"phone_number": optional(user.PhoneNumber),
		"role":         user.Role,
		"is_verified":  user.IsVerified,
		"created_at":   user.CreatedAt,
	}
	if user.Address != nil {
		encoded, err := user.Address.Encode()
		if err != nil {
			return fmt.Errorf("encode address: %w", err)
		}
		row["address"] = encoded
	}
	return r.insert(ctx, row)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.byID(ctx, id)
}

// List returns users matching the filter ordered by signup time
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	q := repositories.Query{}
	if filter.Role != nil {
		q = q.Where(repositories.Eq("role", *filter.Role))
	}
	if filter.IsVerified != nil {
		q = q.Where(repositories.Eq("is_verified", *filter.IsVerified))
	}
	q = q.OrderBy("created_at", true).Range(filter.Offset, filter.Limit)
	return r.list(ctx, q)
}

// Update applies a column patch
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.User, error) {
	return r.update(ctx, patch, repositories.Eq("id", id))
}

// Count counts users, optionally restricted to one role
func (r *UserRepository) Count(ctx context.Context, role *models.Role) (int, error) {
	if role == nil {
		return r.count(ctx)
	}
	return r.count(ctx, repositories.Eq("role", *role))
}
