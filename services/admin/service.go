// Package admin implements the administrative console: user management,
// role changes, marketplace statistics and the audit trail.
package admin

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)

// Service implements the admin console
type Service struct {
	repos    *repositories.Repositories
	recorder services.Recorder
	logger   *zap.Logger
}

// NewService creates the admin service
func NewService(repos *repositories.Repositories, recorder services.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{repos: repos, recorder: recorder, logger: logger}
}

// ClampPage normalises a page size
func ClampPage(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

// ListUsers returns a page of users
func (s *Service) ListUsers(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	filter.Limit = ClampPage(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	users, err := s.repos.Users.List(ctx, filter)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	return users, nil
}

// GetUser returns any user
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	return user, nil
}

// UpdateUser applies an administrative edit
func (s *Service) UpdateUser(ctx context.Context, adminID, id uuid.UUID, update models.AdminUserUpdate) (*models.User, error) {
	patch, err := update.Fields()
	if err != nil {
		return nil, services.Validation(err.Error())
	}
	if len(patch) == 0 {
		return nil, services.ErrNothingToUpdate
	}
	user, err := s.repos.Users.Update(ctx, id, patch)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, services.ErrAccountExists)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionUserUpdated, "user").
		WithActor(adminID).
		WithResource(id).
		WithDetails(map[string]any{"fields": sortedKeys(patch)}))
	return user, nil
}

// UpdateRole moves a user to another role, typically approving a pending provider
func (s *Service) UpdateRole(ctx context.Context, adminID, id uuid.UUID, role string) (*models.User, error) {
	next, ok := models.ParseRole(role)
	if !ok {
		return nil, services.ErrInvalidRole.WithDetail("allowed", models.AllRoles)
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == next {
		return user, nil
	}

	updated, err := s.repos.Users.Update(ctx, id, map[string]any{"role": next})
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	s.logger.Info("user role changed",
		zap.String("user_id", id.String()),
		zap.String("from", string(user.Role)),
		zap.String("to", string(next)),
		zap.String("admin_id", adminID.String()))
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionUserRoleChanged, "user").
		WithActor(adminID).
		WithResource(id).
		WithDetails(map[string]any{"from": user.Role, "to": next}))
	return updated, nil
}

// DashboardStats gathers marketplace counters
func (s *Service) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error

	countUsers := func(role *models.Role) int {
		if err != nil {
			return 0
		}
		var n int
		n, err = s.repos.Users.Count(ctx, role)
		return n
	}
	countBookings := func(status *models.BookingStatus) int {
		if err != nil {
			return 0
		}
		var n int
		n, err = s.repos.Bookings.Count(ctx, status)
		return n
	}
	countServices := func(activeOnly bool) int {
		if err != nil {
			return 0
		}
		var n int
		n, err = s.repos.Services.Count(ctx, activeOnly)
		return n
	}
	role := func(r models.Role) *models.Role { return &r }
	status := func(st models.BookingStatus) *models.BookingStatus { return &st }

	stats.Users = models.UserStats{
		Total:     countUsers(nil),
		Clients:   countUsers(role(models.RoleClient)),
		Providers: countUsers(role(models.RoleProvider)),
		Admins:    countUsers(role(models.RoleAdmin)),
	}
	stats.Services = models.ServiceStats{
		Total:  countServices(false),
		Active: countServices(true),
	}
	stats.Bookings = models.BookingStats{
		Total:     countBookings(nil),
		Pending:   countBookings(status(models.BookingStatusPending)),
		Confirmed: countBookings(status(models.BookingStatusConfirmed)),
		Completed: countBookings(status(models.BookingStatusCompleted)),
		Cancelled: countBookings(status(models.BookingStatusCancelled)),
	}
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}

	paid, err := s.repos.Bookings.ListByPaymentStatus(ctx, models.PaymentStatusPaid)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	var revenue float64
	for _, b := range paid {
		revenue += b.TotalPrice
	}
	stats.Payments = models.PaymentStats{
		PaidBookings: len(paid),
		TotalRevenue: models.RoundPrice(revenue),
	}
	return &stats, nil
}

// AuditLogs returns a page of the audit trail, newest first
func (s *Service) AuditLogs(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	if offset < 0 {
		offset = 0
	}
	logs, err := s.repos.AuditLogs.List(ctx, ClampPage(limit), offset)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	return logs, nil
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
