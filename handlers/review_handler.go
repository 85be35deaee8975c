package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/services/review"
)

// ReviewHandler handles review requests under /api/reviews
type ReviewHandler struct {
	reviews *review.Service
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews *review.Service, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleCreate handles POST /api/reviews
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	var req review.CreateRequest
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	rv, err := h.reviews.Create(r.Context(), callerID, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeCreated(w, r, rv, h.logger)
}

// HandleListByProvider handles GET /api/reviews/provider/{provider_id}
func (h *ReviewHandler) HandleListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "provider_id")
	if !ok {
		return
	}

	list, err := h.reviews.ListByProvider(r.Context(), providerID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, list, h.logger)
}

// HandleListByService handles GET /api/reviews/service/{service_id}
func (h *ReviewHandler) HandleListByService(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathID(w, r, "service_id")
	if !ok {
		return
	}

	list, err := h.reviews.ListByService(r.Context(), serviceID)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, list, h.logger)
}
