// Package handlers exposes the marketplace services over HTTP. Handlers
// stay thin: decode, validate, call one service method, write the envelope.
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/internal/observability"
	"github.com/blazzica/marketplace-api/middleware"
	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/utils"
)

func requestLogger(r *http.Request, logger *zap.Logger) *zap.Logger {
	if r == nil {
		return logger
	}
	return observability.ForRequest(r.Context(), logger)
}

// DecodeAndValidate reads a JSON body into dst and runs its validate tags.
// On failure it writes the 400 itself and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// CallerID returns the authenticated caller's user ID. Routes behind
// RequireAuth always have one; the 401 covers a missing hook.
func CallerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id := middleware.GetUserIDFromContext(r.Context())
	if id == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// Caller returns the verified identity
func Caller(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}
	return identity, true
}

// pathID parses a UUID route parameter, writing the 400 on failure
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := utils.URLParamUUID(r, name)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeOK(w http.ResponseWriter, r *http.Request, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		requestLogger(r, logger).Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, r *http.Request, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		requestLogger(r, logger).Error("failed to write response", zap.Error(err))
	}
}
