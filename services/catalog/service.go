// Package catalog manages service listings and provider discovery.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
)

// CreateRequest is the payload of a new listing
type CreateRequest struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" validate:"required,notblank"`
	Price       float64 `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required,notblank,max=100"`
}

// Service implements the catalog
type Service struct {
	services repositories.ServiceRepository
	users    repositories.UserRepository
	profiles repositories.ProviderProfileRepository
	recorder services.Recorder
	logger   *zap.Logger
}

// NewService creates the catalog service
func NewService(repos *repositories.Repositories, recorder services.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{
		services: repos.Services,
		users:    repos.Users,
		profiles: repos.Profiles,
		recorder: recorder,
		logger:   logger,
	}
}

// List returns listings matching the filter
func (s *Service) List(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, error) {
	list, err := s.services.List(ctx, filter)
	if err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}
	return list, nil
}

// ListByProvider returns a provider's listings, optionally only active or inactive ones
func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, isActive *bool) ([]*models.Service, error) {
	return s.List(ctx, models.ServiceFilter{ProviderID: &providerID, IsActive: isActive})
}

// Get returns one listing
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrServiceNotFound, nil)
	}
	return svc, nil
}

// titleMatches reports whether a listing title matches the search term,
// either exactly or by containment, ignoring case
func titleMatches(title, term string) bool {
	t, q := strings.ToLower(title), strings.ToLower(term)
	return t == q || strings.Contains(t, q)
}

// FindProviders returns the providers offering active listings in
// category whose title matches serviceName. Empty arguments match all.
// Each entry carries the provider's account, profile and active listings.
func (s *Service) FindProviders(ctx context.Context, serviceName, category string) ([]*models.ProviderListing, error) {
	active := true
	list, err := s.List(ctx, models.ServiceFilter{Category: category, IsActive: &active})
	if err != nil {
		return nil, err
	}

	var providerIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, svc := range list {
		if serviceName != "" && !titleMatches(svc.Title, serviceName) {
			continue
		}
		if !seen[svc.ProviderID] {
			seen[svc.ProviderID] = true
			providerIDs = append(providerIDs, svc.ProviderID)
		}
	}

	listings := make([]*models.ProviderListing, 0, len(providerIDs))
	for _, id := range providerIDs {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				s.logger.Warn("listing owner has no user row", zap.String("provider_id", id.String()))
				continue
			}
			return nil, services.FromRepository(err, nil, nil)
		}

		profile, err := s.profiles.GetByUserID(ctx, id)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, services.FromRepository(err, nil, nil)
		}

		var offered []*models.Service
		for _, svc := range list {
			if svc.ProviderID == id {
				offered = append(offered, svc)
			}
		}
		listings = append(listings, &models.ProviderListing{User: user, Profile: profile, Services: offered})
	}
	return listings, nil
}

// GetByTitle finds an active listing by exact then partial title match and
// reports the price span of active listings in its category.
func (s *Service) GetByTitle(ctx context.Context, title string) (*models.ServiceWithPriceRange, error) {
	active := true
	list, err := s.List(ctx, models.ServiceFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, services.ErrNoServicesFound
	}

	term := strings.ToLower(strings.TrimSpace(title))
	var match *models.Service
	for _, svc := range list {
		if strings.ToLower(svc.Title) == term {
			match = svc
			break
		}
	}
	if match == nil {
		for _, svc := range list {
			t := strings.ToLower(svc.Title)
			if strings.Contains(t, term) || strings.Contains(term, t) {
				match = svc
				break
			}
		}
	}
	if match == nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "Service with title '"+title+"' not found", nil)
	}

	out := &models.ServiceWithPriceRange{Service: *match, MinPrice: match.Price, MaxPrice: match.Price}
	for _, svc := range list {
		if svc.Category != match.Category {
			continue
		}
		if svc.Price < out.MinPrice {
			out.MinPrice = svc.Price
		}
		if svc.Price > out.MaxPrice {
			out.MaxPrice = svc.Price
		}
	}
	return out, nil
}

// Create adds a listing owned by the caller. The caller's stored role must
// allow managing services.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Service, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	if !actor.Role.Can(models.PermManageServices) {
		return nil, services.ErrCannotCreateServices
	}

	svc := models.NewService(actorID, strings.TrimSpace(req.Title), req.Description, strings.TrimSpace(req.Category), req.Price)
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, services.FromRepository(err, nil, nil)
	}

	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionServiceCreated, "service").
		WithActor(actorID).
		WithResource(svc.ID).
		WithDetails(map[string]any{"title": svc.Title, "price": svc.Price}))
	return svc, nil
}

// Update edits a listing. Only the owner or an admin may do so.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, update models.ServiceUpdate) (*models.Service, error) {
	svc, err := s.authorizeOwner(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	patch := update.Fields()
	if len(patch) == 0 {
		return svc, nil
	}

	updated, err := s.services.Update(ctx, id, patch)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrServiceNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionServiceUpdated, "service").
		WithActor(actorID).
		WithResource(id).
		WithDetails(patch))
	return updated, nil
}

// Delete removes a listing. Only the owner or an admin may do so.
func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	svc, err := s.authorizeOwner(ctx, actorID, id)
	if err != nil {
		return err
	}
	if err := s.services.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrServiceNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionServiceDeleted, "service").
		WithActor(actorID).
		WithResource(id).
		WithDetails(map[string]any{"title": svc.Title, "provider_id": svc.ProviderID}))
	return nil
}

func (s *Service) authorizeOwner(ctx context.Context, actorID, id uuid.UUID) (*models.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	if svc.ProviderID != actorID && !actor.IsAdmin() {
		return nil, services.ErrNotServiceOwner
	}
	return svc, nil
}
