package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services"
	"github.com/blazzica/marketplace-api/services/admin"
	"github.com/blazzica/marketplace-api/utils"
)

// AdminHandler handles the admin console under /api/admin.
// Every route sits behind the admin gate.
type AdminHandler struct {
	admin  *admin.Service
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin *admin.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleRoot handles GET /api/admin
func (h *AdminHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	_ = utils.WriteMessage(w, "Admin endpoints")
}

// HandleListUsers handles GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	var filter models.UserFilter

	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			HandleServiceError(w, r, services.ErrInvalidRole.WithDetail("allowed", models.AllRoles), h.logger)
			return
		}
		filter.Role = &role
	}

	var err error
	if filter.IsVerified, err = utils.QueryBool(r, "is_verified"); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if filter.Offset, err = utils.QueryInt(r, "skip", 0); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	if filter.Limit, err = utils.QueryInt(r, "limit", admin.DefaultPageSize); err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	users, err := h.admin.ListUsers(r.Context(), filter)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, users, h.logger)
}

// HandleGetUser handles GET /api/admin/users/{user_id}
func (h *AdminHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	user, err := h.admin.GetUser(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, user, h.logger)
}

// HandleUpdateUser handles PUT /api/admin/users/{user_id}
func (h *AdminHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	var req models.AdminUserUpdate
	if !DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.admin.UpdateUser(r.Context(), adminID, id, req)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, user, h.logger)
}

// HandleUpdateRole handles PUT /api/admin/users/{user_id}/role?role=
func (h *AdminHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := CallerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	role := r.URL.Query().Get("role")
	if role == "" {
		_ = utils.WriteBadRequest(w, "role is required", nil)
		return
	}

	user, err := h.admin.UpdateRole(r.Context(), adminID, id, role)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, user, h.logger)
}

// HandleDashboardStats handles GET /api/admin/dashboard/stats
func (h *AdminHandler) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.DashboardStats(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, stats, h.logger)
}

// HandleAuditLogs handles GET /api/admin/audit-logs
func (h *AdminHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.QueryInt(r, "limit", admin.DefaultPageSize)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	logs, err := h.admin.AuditLogs(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeOK(w, r, logs, h.logger)
}
