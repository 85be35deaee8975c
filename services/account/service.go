// Package account implements signup, login, password recovery and
// self-service profile management on top of the identity provider.
package account

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/services"
	"github.com/blazzica/marketplace-api/supabase"
)

// IdentityProvider is the subset of the identity API the account flows use
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*supabase.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	GetUser(ctx context.Context, accessToken string) (*supabase.AuthUser, error)
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// SignupRequest is the payload of a new registration
type SignupRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password" validate:"required,min=6"`
	FirstName   string          `json:"first_name" validate:"required,notblank,max=100"`
	LastName    string          `json:"last_name" validate:"required,notblank,max=100"`
	PhoneNumber *string         `json:"phone_number,omitempty" validate:"omitempty,max=32"`
	Address     *models.Address `json:"address,omitempty"`
	Role        string          `json:"role" validate:"required"`
}

// Service implements the account flows
type Service struct {
	idp           IdentityProvider
	users         repositories.UserRepository
	recorder      services.Recorder
	resetRedirect string
	logger        *zap.Logger
}

// NewService creates the account service. resetRedirect is where
// password recovery emails link to.
func NewService(idp IdentityProvider, users repositories.UserRepository, recorder services.Recorder, resetRedirect string, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = services.NopRecorder{}
	}
	return &Service{
		idp:           idp,
		users:         users,
		recorder:      recorder,
		resetRedirect: resetRedirect,
		logger:        logger,
	}
}

// SignUp registers the identity and creates the matching users row.
// Provider signups start as pending_provider until an admin approves them.
func (s *Service) SignUp(ctx context.Context, req SignupRequest) (uuid.UUID, error) {
	var role models.Role
	switch strings.ToLower(strings.TrimSpace(req.Role)) {
	case string(models.RoleClient):
		role = models.RoleClient
	case string(models.RoleProvider):
		role = models.RolePendingProvider
	default:
		return uuid.Nil, services.ErrInvalidSignupRole
	}

	authUser, err := s.idp.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return uuid.Nil, s.mapSignupError(err)
	}
	id, err := uuid.Parse(authUser.ID)
	if err != nil {
		return uuid.Nil, services.WrapExternal("identity provider returned an invalid user id", err)
	}

	user := models.NewUser(id, req.Email, req.FirstName, req.LastName, role)
	user.PhoneNumber = req.PhoneNumber
	user.Address = req.Address
	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, services.FromRepository(err, nil, services.ErrAccountExists)
	}

	s.logger.Info("user signed up", zap.String("user_id", id.String()), zap.String("role", string(role)))
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionUserSignedUp, "user").
		WithActor(id).
		WithResource(id).
		WithDetails(map[string]any{"role": role}))

	return id, nil
}

func (s *Service) mapSignupError(err error) error {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "user_already_exists" || apiErr.Code == "email_exists" ||
			strings.Contains(strings.ToLower(apiErr.Message), "already registered") {
			return services.ErrAccountExists.Wrap(err)
		}
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return services.Validation(apiErr.Message)
		}
	}
	return services.ErrIdentityProvider.Wrap(err)
}

// Login exchanges credentials for a session
func (s *Service) Login(ctx context.Context, email, password string) (*supabase.Session, error) {
	session, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			s.logger.Info("login rejected", zap.String("code", apiErr.Code))
			return nil, services.ErrInvalidCredentials.Wrap(err)
		}
		return nil, services.ErrIdentityProvider.Wrap(err)
	}
	return session, nil
}

// Logout revokes the session. Failures are logged, the caller's cookie is cleared regardless.
func (s *Service) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.idp.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("sign out failed", zap.Error(err))
	}
}

// RequestPasswordReset asks the identity provider to email a recovery
// link. The outcome is never reported to the caller.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	if err := s.idp.ResetPasswordForEmail(ctx, email, s.resetRedirect); err != nil {
		s.logger.Warn("password reset request failed", zap.Error(err))
	}
}

// UpdatePassword sets a new password using a recovery token
func (s *Service) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if _, err := s.idp.GetUser(ctx, accessToken); err != nil {
		return services.ErrInvalidResetToken.Wrap(err)
	}
	if err := s.idp.UpdatePassword(ctx, accessToken, password); err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return services.Validation(apiErr.Message)
		}
		return services.ErrIdentityProvider.Wrap(err)
	}
	return nil
}

// GetUser returns a user row
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	return user, nil
}

// UpdateProfile applies the caller's edit of their own row
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	patch, err := update.Fields()
	if err != nil {
		return nil, services.Validation(err.Error())
	}
	if len(patch) == 0 {
		return s.GetUser(ctx, id)
	}
	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionUserUpdated, "user").
		WithActor(id).
		WithResource(id).
		WithDetails(map[string]any{"fields": keys(patch)}))
	return user, nil
}

// ApplyAsProvider moves the caller to pending_provider. Applying again
// while pending is a no-op.
func (s *Service) ApplyAsProvider(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Role.Can(models.PermApplyAsProvider) {
		return nil, services.ErrCannotApply
	}
	if user.Role == models.RolePendingProvider {
		return user, nil
	}

	updated, err := s.users.Update(ctx, id, map[string]any{"role": models.RolePendingProvider})
	if err != nil {
		return nil, services.FromRepository(err, services.ErrUserNotFound, nil)
	}
	s.recorder.Record(ctx, models.NewAuditLog(models.AuditActionProviderApplied, "user").
		WithActor(id).
		WithResource(id).
		WithDetails(map[string]any{"previous_role": user.Role}))
	return updated, nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
