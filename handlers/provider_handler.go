package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services/provider"
)

// ProviderHandler handles provider profile requests under /api/providers
type ProviderHandler struct {
	profiles *provider.Service
	logger   *zap.Logger
}

// NewProviderHandler creates a new ProviderHandler
func NewProviderHandler(profiles *provider.Service, logger *zap.Logger) *ProviderHandler {
	return &ProviderHandler{profiles: profiles, logger: logger}
}

// HandleCreate handles POST /api/providers
func (h *ProviderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	var req models.ProviderProfileInput
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	profile, err := h.profiles.Create(r.Context(), callerID, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeCreated(w, r, profile, h.logger)
}

// HandleGet handles GET /api/providers/{provider_id}
func (h *ProviderHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "provider_id")
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), providerID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, profile, h.logger)
}

// HandleUpdate handles PUT /api/providers
func (h *ProviderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	var req models.ProviderProfileInput
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), callerID, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, profile, h.logger)
}
