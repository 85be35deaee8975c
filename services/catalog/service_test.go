package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/repositories/repotest"
	"github.com/blazzica/marketplace-api/services"
)

func setup() (*Service, *repotest.Mocks, *repotest.Recorder) {
	mocks := repotest.New()
	rec := &repotest.Recorder{}
	return NewService(mocks.Repositories(), rec, zap.NewNop()), mocks, rec
}

func listing(provider uuid.UUID, title, category string, price float64) *models.Service {
	return models.NewService(provider, title, "desc", category, price)
}

func activeFilter(category string) models.ServiceFilter {
	active := true
	return models.ServiceFilter{Category: category, IsActive: &active}
}

func TestFindProviders(t *testing.T) {
	svc, mocks, _ := setup()
	ctx := context.Background()
	alice, bob, ghost := uuid.New(), uuid.New(), uuid.New()

	list := []*models.Service{
		listing(alice, "Deep House Cleaning", "cleaning", 80),
		listing(bob, "Window cleaning", "cleaning", 40),
		listing(alice, "Ironing", "cleaning", 20),
		listing(ghost, "House cleaning express", "cleaning", 50),
	}
	mocks.Services.On("List", ctx, activeFilter("cleaning")).Return(list, nil)
	mocks.Users.On("GetByID", ctx, alice).Return(&models.User{ID: alice, Role: models.RoleProvider}, nil)
	mocks.Users.On("GetByID", ctx, ghost).Return(nil, repositories.ErrNotFound)
	mocks.Profiles.On("GetByUserID", ctx, alice).Return(nil, repositories.ErrNotFound)

	got, err := svc.FindProviders(ctx, "house", "cleaning")
	require.NoError(t, err)

	require.Len(t, got, 1, "bob does not match, ghost has no user row")
	assert.Equal(t, alice, got[0].User.ID)
	assert.Nil(t, got[0].Profile)
	assert.Len(t, got[0].Services, 2, "every active listing of the provider is attached")
	mocks.AssertExpectations(t)
}

func TestFindProviders_RepositoryFailure(t *testing.T) {
	svc, mocks, _ := setup()
	mocks.Services.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := svc.FindProviders(context.Background(), "", "")
	assert.True(t, services.IsInternalError(err))
}

func TestGetByTitle(t *testing.T) {
	p := uuid.New()
	list := []*models.Service{
		listing(p, "Dog walking", "pets", 15),
		listing(p, "Dog walking premium", "pets", 30),
		listing(p, "Cat sitting", "pets", 10),
		listing(p, "Plumbing", "home", 90),
	}

	tests := []struct {
		name      string
		title     string
		wantTitle string
		wantMin   float64
		wantMax   float64
	}{
		{name: "exact match wins", title: "dog walking", wantTitle: "Dog walking", wantMin: 10, wantMax: 30},
		{name: "partial match", title: "premium", wantTitle: "Dog walking premium", wantMin: 10, wantMax: 30},
		{name: "term contains title", title: "emergency plumbing", wantTitle: "Plumbing", wantMin: 90, wantMax: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks, _ := setup()
			mocks.Services.On("List", mock.Anything, activeFilter("")).Return(list, nil)

			got, err := svc.GetByTitle(context.Background(), tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantMin, got.MinPrice)
			assert.Equal(t, tt.wantMax, got.MaxPrice)
		})
	}
}

func TestGetByTitle_NotFound(t *testing.T) {
	svc, mocks, _ := setup()
	mocks.Services.On("List", mock.Anything, activeFilter("")).
		Return([]*models.Service{listing(uuid.New(), "Gardening", "home", 25)}, nil)

	_, err := svc.GetByTitle(context.Background(), "tutoring")
	require.True(t, services.IsNotFoundError(err))
	assert.Equal(t, "Service with title 'tutoring' not found", services.GetErrorMessage(err))
}

func TestGetByTitle_EmptyCatalog(t *testing.T) {
	svc, mocks, _ := setup()
	mocks.Services.On("List", mock.Anything, activeFilter("")).Return([]*models.Service{}, nil)

	_, err := svc.GetByTitle(context.Background(), "anything")
	assert.ErrorIs(t, err, services.ErrNoServicesFound)
}

func TestCreate(t *testing.T) {
	tests := []struct {
		role    models.Role
		wantErr error
	}{
		{role: models.RoleProvider},
		{role: models.RoleAdmin},
		{role: models.RoleClient, wantErr: services.ErrCannotCreateServices},
		{role: models.RolePendingProvider, wantErr: services.ErrCannotCreateServices},
		{role: models.RoleUser, wantErr: services.ErrCannotCreateServices},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			svc, mocks, rec := setup()
			actor := uuid.New()
			mocks.Users.On("GetByID", mock.Anything, actor).Return(&models.User{ID: actor, Role: tt.role}, nil)
			if tt.wantErr == nil {
				mocks.Services.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Service) bool {
					return s.ProviderID == actor && s.Title == "Yoga class" && s.Price == 20 && s.IsActive
				})).Return(nil)
			}

			got, err := svc.Create(context.Background(), actor, CreateRequest{
				Title:       "  Yoga class ",
				Description: "One hour",
				Price:       19.999,
				Category:    "fitness",
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mocks.Services.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, actor, got.ProviderID)
			assert.Equal(t, []models.AuditAction{models.AuditActionServiceCreated}, rec.Actions())
			mocks.AssertExpectations(t)
		})
	}
}

func TestUpdate(t *testing.T) {
	owner, stranger, admin := uuid.New(), uuid.New(), uuid.New()
	users := map[uuid.UUID]*models.User{
		owner:    {ID: owner, Role: models.RoleProvider},
		stranger: {ID: stranger, Role: models.RoleProvider},
		admin:    {ID: admin, Role: models.RoleAdmin},
	}
	existing := listing(owner, "Guitar lessons", "music", 30)
	price := 35.0

	tests := []struct {
		name    string
		actor   uuid.UUID
		wantErr error
	}{
		{name: "owner", actor: owner},
		{name: "admin", actor: admin},
		{name: "other provider", actor: stranger, wantErr: services.ErrNotServiceOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks, rec := setup()
			mocks.Services.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
			mocks.Users.On("GetByID", mock.Anything, tt.actor).Return(users[tt.actor], nil)
			if tt.wantErr == nil {
				updated := *existing
				updated.Price = price
				mocks.Services.On("Update", mock.Anything, existing.ID, map[string]any{"price": price}).Return(&updated, nil)
			}

			got, err := svc.Update(context.Background(), tt.actor, existing.ID, models.ServiceUpdate{Price: &price})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, rec.Logs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, price, got.Price)
			assert.Equal(t, []models.AuditAction{models.AuditActionServiceUpdated}, rec.Actions())
		})
	}
}

func TestUpdate_MissingService(t *testing.T) {
	svc, mocks, _ := setup()
	id := uuid.New()
	mocks.Services.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	_, err := svc.Update(context.Background(), uuid.New(), id, models.ServiceUpdate{})
	assert.ErrorIs(t, err, services.ErrServiceNotFound)
}

func TestDelete(t *testing.T) {
	svc, mocks, rec := setup()
	owner := uuid.New()
	existing := listing(owner, "Tax advice", "finance", 120)

	mocks.Services.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)
	mocks.Users.On("GetByID", mock.Anything, owner).Return(&models.User{ID: owner, Role: models.RoleProvider}, nil)
	mocks.Services.On("Delete", mock.Anything, existing.ID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), owner, existing.ID))
	assert.Equal(t, []models.AuditAction{models.AuditActionServiceDeleted}, rec.Actions())
	mocks.AssertExpectations(t)
}

func TestListByProvider(t *testing.T) {
	svc, mocks, _ := setup()
	provider := uuid.New()
	inactive := false
	mocks.Services.On("List", mock.Anything, models.ServiceFilter{ProviderID: &provider, IsActive: &inactive}).
		Return([]*models.Service{}, nil)

	got, err := svc.ListByProvider(context.Background(), provider, &inactive)
	require.NoError(t, err)
	assert.Empty(t, got)
	mocks.AssertExpectations(t)
}
