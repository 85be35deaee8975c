package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services/catalog"
	"github.com/blazzica/marketplace-api/utils"
)

// ServiceHandler handles listing requests under /api/services
type ServiceHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewServiceHandler creates a new ServiceHandler
func NewServiceHandler(catalog *catalog.Service, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, logger: logger}
}

// HandleList handles GET /api/services
func (h *ServiceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := models.ServiceFilter{Category: r.URL.Query().Get("category")}

	var err error
	if filter.MinPrice, err = utils.QueryFloat(r, "min_price"); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if filter.MaxPrice, err = utils.QueryFloat(r, "max_price"); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if filter.IsActive, err = utils.QueryBool(r, "is_active"); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if filter.IsActive == nil {
		active := true
		filter.IsActive = &active
	}

	list, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, list, h.logger)
}

// HandleFindProviders handles GET /api/services/providers
func (h *ServiceHandler) HandleFindProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := h.catalog.FindProviders(r.Context(), q.Get("service"), q.Get("category"))
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, listings, h.logger)
}

// HandleListByProvider handles GET /api/services/provider/{provider_id}
func (h *ServiceHandler) HandleListByProvider(w http.ResponseWriter, r *http.Request) {
	providerID, ok := pathID(w, r, "provider_id")
	if !ok {
		return
	}
	isActive, err := utils.QueryBool(r, "is_active")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	list, err := h.catalog.ListByProvider(r.Context(), providerID, isActive)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, list, h.logger)
}

// HandleGetByTitle handles GET /api/services/by-title/{title}
func (h *ServiceHandler) HandleGetByTitle(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(chi.URLParam(r, "title"))
	if title == "" {
		_ = utils.WriteBadRequest(w, "title is required", nil)
		return
	}

	svc, err := h.catalog.GetByTitle(r.Context(), title)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, svc, h.logger)
}

// HandleGet handles GET /api/services/{service_id}
func (h *ServiceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "service_id")
	if !ok {
		return
	}

	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, svc, h.logger)
}

// HandleCreate handles POST /api/services
func (h *ServiceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	var req catalog.CreateRequest
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	svc, err := h.catalog.Create(r.Context(), callerID, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	requestLogger(r, h.logger).Info("service created",
		zap.String("service_id", svc.ID.String()),
		zap.String("provider_id", callerID.String()))
	writeCreated(w, r, svc, h.logger)
}

// HandleUpdate handles PUT /api/services/{service_id}
func (h *ServiceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "service_id")
	if !ok {
		return
	}
	var req models.ServiceUpdate
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	svc, err := h.catalog.Update(r.Context(), callerID, id, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, svc, h.logger)
}

// HandleDelete handles DELETE /api/services/{service_id}
func (h *ServiceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "service_id")
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), callerID, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "Service deleted successfully")
}
