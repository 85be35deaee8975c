// Package provider manages provider profiles.
package provider

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
)

// Service implements provider profiles
type Service struct {
	profiles repositories.ProviderProfileRepository
	users    repositories.UserRepository
	recorder services.Recorder
	logger   *zap.Logger
}

// NewService creates the provider profile service
func NewService(repos *repositories.Repositories, recorder services.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{
		profiles: repos.Profiles,
		users:    repos.Users,
		recorder: recorder,
		logger:   logger,
	}
}

// Create makes the caller's profile. Providers and pending providers may
// have exactly one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in models.ProviderProfileInput) (*models.ProviderProfile, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}

	_, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		return nil, services.ErrProfileExists
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, services.FromRepository(err, nil, nil)
	}

	profile := models.NewProviderProfile(userID, in)
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, services.FromRepository(err, nil, services.ErrProfileExists)
	}
	s.record(ctx, userID, profile.ID, "created")
	return profile, nil
}

// Get returns a provider's public profile
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrProfileNotFound, nil)
	}
	return profile, nil
}

// Update edits the caller's own profile
func (s *Service) Update(ctx context.Context, userID uuid.UUID, in models.ProviderProfileInput) (*models.ProviderProfile, error) {
	if err := s.authorize(ctx, userID); err != nil {
		return nil, err
	}
	patch := in.Fields()
	if len(patch) == 0 {
		return s.Get(ctx, userID)
	}

	profile, err := s.profiles.UpdateByUserID(ctx, userID, patch)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrProfileNotFound, nil)
	}
	s.record(ctx, userID, profile.ID, "updated")
	return profile, nil
}

func (s *Service) authorize(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	if !user.Role.Can(models.PermManageProviderProfile) {
		return services.ErrNotProvider
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID, profileID uuid.UUID, op string) {
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionProviderProfileSaved, "provider_profile").
		WithActor(userID).
		WithResource(profileID).
		WithDetails(map[string]any{"operation": op}))
}
