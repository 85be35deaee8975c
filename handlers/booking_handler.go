package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services"
	"github.com/blazzica/marketplace-api/services/booking"
	"github.com/blazzica/marketplace-api/utils"
)

// StatusUpdateRequest is the provider's response to a booking
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// BookingHandler handles booking requests under /api/bookings
type BookingHandler struct {
	bookings *booking.Service
	logger   *zap.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *booking.Service, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// HandleCreate handles POST /api/bookings
func (h *BookingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	var req booking.CreateRequest
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	b, err := h.bookings.Create(r.Context(), callerID, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeCreated(w, r, b, h.logger)
}

// HandleUpdateStatus handles POST /api/bookings/{booking_id}/status
func (h *BookingHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "booking_id")
	if !ok {
		return
	}
	var req StatusUpdateRequest
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	b, err := h.bookings.UpdateStatus(r.Context(), callerID, id, req.Status)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, b, h.logger)
}

// HandleList handles GET /api/bookings
func (h *BookingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}

	var status *models.BookingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := models.ParseBookingStatus(raw)
		if !ok {
			HandleServiceError(w, r, services.ErrInvalidStatus, h.logger)
			return
		}
		status = &parsed
	}

	list, err := h.bookings.List(r.Context(), callerID, status)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, list, h.logger)
}

// HandleGet handles GET /api/bookings/{booking_id}
func (h *BookingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "booking_id")
	if !ok {
		return
	}

	b, err := h.bookings.Get(r.Context(), callerID, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, b, h.logger)
}

// HandleUpdate handles PUT /api/bookings/{booking_id}
func (h *BookingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "booking_id")
	if !ok {
		return
	}
	var req models.BookingUpdate
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	b, err := h.bookings.Update(r.Context(), callerID, id, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, b, h.logger)
}

// HandleCancel handles DELETE /api/bookings/{booking_id}
func (h *BookingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "booking_id")
	if !ok {
		return
	}

	if _, err := h.bookings.Cancel(r.Context(), callerID, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
