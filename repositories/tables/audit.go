package tables

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
)

// AuditRepository implements repositories.AuditRepository
type AuditRepository struct {
	store[models.AuditLog]
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(q repositories.TableQuery) repositories.AuditRepository {
	return &AuditRepository{store[models.AuditLog]{q: q, table: models.AuditLog{}.TableName()}}
}

// Insert inserts a new audit log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	row := map[string]any{
		"id":            log.ID,
		"actor_id":      log.ActorID,
		"action":        log.Action,
		"resource_type": log.ResourceType,
		"resource_id":   log.ResourceID,
		"request_id":    log.RequestID,
		"ip_address":    log.IPAddress,
		"user_agent":    log.UserAgent,
		"created_at":    log.CreatedAt,
	}
	if len(log.Details) > 0 {
		row["details"] = log.Details
	}
	return r.insert(ctx, row)
}

// List returns entries newest first
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	return r.list(ctx, repositories.Query{}.OrderBy("created_at", true).Range(offset, limit))
}
