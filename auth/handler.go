// Package auth serves the account endpoints under /api/auth: signup,
// password login with a session cookie, recovery and self-service profile.
package auth

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blazzica/marketplace-api/handlers"
	"github.com/blazzica/marketplace-api/middleware"
	"github.com/blazzica/marketplace-api/models"
	"github.com/blazzica/marketplace-api/services/account"
	"github.com/blazzica/marketplace-api/utils"
)

const (
	// SessionCookieName is read back by middleware.RequireAuth
	SessionCookieName = middleware.SessionCookieName
	// defaultSessionMaxAge applies when the identity provider omits expires_in
	defaultSessionMaxAge = time.Hour

	passwordResetMessage = "If the email exists in our system, a password reset link has been sent."
)

// LoginRequest is the password grant payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in,omitempty"`
	User        LoginUser `json:"user"`
}

// LoginUser identifies the signed in account
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignupResponse is returned on a successful registration
type SignupResponse struct {
	UserID string `json:"user_id"`
}

// PasswordResetRequest asks for a recovery email
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required"`
}

// PasswordUpdateRequest sets a new password with a recovery token
type PasswordUpdateRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// Handler serves the account endpoints
type Handler struct {
	accounts      *account.Service
	secureCookies bool
	logger        *zap.Logger
}

// NewHandler creates the account handler. secureCookies marks the
// session cookie Secure and should be set outside local development.
func NewHandler(accounts *account.Service, secureCookies bool, logger *zap.Logger) *Handler {
	return &Handler{
		accounts:      accounts,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleSignup handles POST /api/auth/signup
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req account.SignupRequest
	if !handlers.DecodeAndValidate(w, r, &req, h.logger) {
		return
	}
	req.Email = normaliseEmail(req.Email)

	id, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse{
		Data:    SignupResponse{UserID: id.String()},
		Message: "User created successfully",
	})
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !handlers.DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	session, err := h.accounts.Login(r.Context(), normaliseEmail(req.Email), req.Password)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}

	maxAge := time.Duration(session.ExpiresIn) * time.Second
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	h.setSessionCookie(w, session.AccessToken, int(maxAge.Seconds()))

	tokenType := strings.ToLower(session.TokenType)
	if tokenType == "" {
		tokenType = "bearer"
	}
	_ = utils.WriteOK(w, LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   session.ExpiresIn,
		User:        LoginUser{ID: session.User.ID, Email: session.User.Email},
	})
}

// HandleLogout handles POST /api/auth/logout. The cookie is cleared even
// when the caller's session is already gone.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Logout(r.Context(), middleware.ExtractToken(r))
	h.setSessionCookie(w, "", -1)
	_ = utils.WriteMessage(w, "Logged out")
}

// HandleResetPassword handles POST /api/auth/reset-password
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !handlers.DecodeAndValidate(w, r, &req, h.logger) {
		return
	}
	email := normaliseEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		_ = utils.WriteBadRequest(w, "email must be a valid email", nil)
		return
	}

	h.accounts.RequestPasswordReset(r.Context(), email)
	_ = utils.WriteMessage(w, passwordResetMessage)
}

// HandleUpdatePassword handles POST /api/auth/update-password
func (h *Handler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordUpdateRequest
	if !handlers.DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.accounts.UpdatePassword(r.Context(), req.AccessToken, req.Password); err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteMessage(w, "Password updated successfully")
}

// HandleMe handles GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := handlers.CallerID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetUser(r.Context(), callerID)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleUpdateMe handles PUT /api/auth/me
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	callerID, ok := handlers.CallerID(w, r)
	if !ok {
		return
	}
	var req models.UserUpdate
	if !handlers.DecodeAndValidate(w, r, &req, h.logger) {
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), callerID, req)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleProviderApplication handles POST /api/auth/provider-application
func (h *Handler) HandleProviderApplication(w http.ResponseWriter, r *http.Request) {
	callerID, ok := handlers.CallerID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.ApplyAsProvider(r.Context(), callerID)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse{
		Data:    user,
		Message: "Application submitted successfully",
	})
}

// HandleGetUser handles GET /api/auth/user/{user_id}
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := utils.URLParamUUID(r, "user_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		handlers.HandleServiceError(w, r, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
