package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AuthUser is the identity provider's view of an account
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Session is the result of a password sign-in
type Session struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// AuthClient calls the identity API
type AuthClient struct {
	c *Client
}

// NewAuthClient creates an identity API client
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers an account
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*AuthUser, error) {
	resp, err := a.c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	// with email confirmation on the user is returned bare, otherwise inside a session
	var out struct {
		AuthUser
		User *AuthUser `json:"user"`
	}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("sign up: decode response: %w", err)
	}
	if out.User != nil && out.User.ID != "" {
		return out.User, nil
	}
	if out.ID == "" {
		return nil, fmt.Errorf("sign up: response carried no user")
	}
	return &out.AuthUser, nil
}

// SignInWithPassword exchanges credentials for a session
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := a.c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	var session Session
	if err := json.Unmarshal(resp.body, &session); err != nil {
		return nil, fmt.Errorf("sign in: decode response: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("sign in: response carried no access token")
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := a.c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: accessToken,
	})
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ResetPasswordForEmail sends a recovery email linking to redirectTo
func (a *AuthClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}
	_, err := a.c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  query,
		body:   map[string]string{"email": email},
	})
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// GetUser introspects accessToken
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	resp, err := a.c.send(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		bearer: accessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user AuthUser
	if err := json.Unmarshal(resp.body, &user); err != nil {
		return nil, fmt.Errorf("get user: decode response: %w", err)
	}
	return &user, nil
}

// UpdatePassword sets a new password for the account behind accessToken
func (a *AuthClient) UpdatePassword(ctx context.Context, accessToken, password string) error {
	_, err := a.c.send(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		bearer: accessToken,
		body:   map[string]string{"password": password},
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
