package services

import (
	"context"

	"github.com/blazzica/marketplace-api/models"
)

// Recorder accepts audit entries. Implementations must not block the caller.
type Recorder interface {
	Record(ctx context.Context, log *models.AuditLog)
}

// NopRecorder discards entries
type NopRecorder struct{}

// Record implements Recorder
func (NopRecorder) Record(context.Context, *models.AuditLog) {}

type requestMetaKey struct{}

// WithRequestMeta attaches HTTP request metadata for audit entries
func WithRequestMeta(ctx context.Context, meta models.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the metadata attached by WithRequestMeta
func RequestMetaFromContext(ctx context.Context) models.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(models.RequestMeta)
	return meta
}
