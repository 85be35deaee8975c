// Package repotest provides testify mocks of the repository interfaces.
package repotest

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
)

// Mocks bundles one mock per repository
type Mocks struct {
	Users     *MockUserRepository
	Services  *MockServiceRepository
	Bookings  *MockBookingRepository
	Reviews   *MockReviewRepository
	Profiles  *MockProviderProfileRepository
	AuditLogs *MockAuditRepository
	Tx        *MockTransactor
}

// New returns fresh mocks
func New() *Mocks {
	return &Mocks{
		Users:     new(MockUserRepository),
		Services:  new(MockServiceRepository),
		Bookings:  new(MockBookingRepository),
		Reviews:   new(MockReviewRepository),
		Profiles:  new(MockProviderProfileRepository),
		AuditLogs: new(MockAuditRepository),
		Tx:        new(MockTransactor),
	}
}

// Repositories exposes the mocks through the production bundle
func (m *Mocks) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     m.Users,
		Services:  m.Services,
		Bookings:  m.Bookings,
		Reviews:   m.Reviews,
		Profiles:  m.Profiles,
		AuditLogs: m.AuditLogs,
		Tx:        m.Tx,
	}
}

// AssertExpectations checks every mock
func (m *Mocks) AssertExpectations(t mock.TestingT) {
	m.Users.AssertExpectations(t)
	m.Services.AssertExpectations(t)
	m.Bookings.AssertExpectations(t)
	m.Reviews.AssertExpectations(t)
	m.Profiles.AssertExpectations(t)
	m.AuditLogs.AssertExpectations(t)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.User, error) {
	args := m.Called(ctx, id, patch)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, role *models.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

// MockServiceRepository is a mock implementation of ServiceRepository
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *models.Service) error {
	args := m.Called(ctx, service)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, error) {
	args := m.Called(ctx, filter)
	if s := args.Get(0); s != nil {
		return s.([]*models.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Service, error) {
	args := m.Called(ctx, id, patch)
	if s := args.Get(0); s != nil {
		return s.(*models.Service), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	args := m.Called(ctx, activeOnly)
	return args.Int(0), args.Error(1)
}

// MockBookingRepository is a mock implementation of BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) ListByClient(ctx context.Context, clientID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, clientID, status)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, status *models.BookingStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, providerID, status)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) ListByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Booking, error) {
	args := m.Called(ctx, status)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.Booking, error) {
	args := m.Called(ctx, id, patch)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) Count(ctx context.Context, status *models.BookingStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockReviewRepository is a mock implementation of ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, bookingID)
	if r := args.Get(0); r != nil {
		return r.(*models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviewRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*models.Review, error) {
	args := m.Called(ctx, providerID)
	if r := args.Get(0); r != nil {
		return r.([]*models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviewRepository) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*models.Review, error) {
	args := m.Called(ctx, serviceID)
	if r := args.Get(0); r != nil {
		return r.([]*models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockProviderProfileRepository is a mock implementation of ProviderProfileRepository
type MockProviderProfileRepository struct {
	mock.Mock
}

func (m *MockProviderProfileRepository) Create(ctx context.Context, profile *models.ProviderProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProviderProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.ProviderProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProviderProfileRepository) UpdateByUserID(ctx context.Context, userID uuid.UUID, patch map[string]any) (*models.ProviderProfile, error) {
	args := m.Called(ctx, userID, patch)
	if p := args.Get(0); p != nil {
		return p.(*models.ProviderProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProviderProfileRepository) UpdateRatings(ctx context.Context, userID uuid.UUID, summary models.RatingSummary) error {
	args := m.Called(ctx, userID, summary)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, limit, offset)
	if l := args.Get(0); l != nil {
		return l.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTransactor runs fn inline and counts calls
type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// Recorder collects audit entries in memory
type Recorder struct {
	Logs []*models.AuditLog
}

// Record implements services.Recorder
func (r *Recorder) Record(_ context.Context, log *models.AuditLog) {
	r.Logs = append(r.Logs, log)
}

// Actions lists the recorded actions in order
func (r *Recorder) Actions() []models.AuditAction {
	out := make([]models.AuditAction, len(r.Logs))
	for i, l := range r.Logs {
		out[i] = l.Action
	}
	return out
}
