package service

import (
	"context"
	"fmt"

	"github.com/webgate-io/authgate/core"
	transport "github.com/webgate-io/authgate/transport/http"
)

// AuthService drives the credential flows that establish and end a session.
type AuthService struct {
	client   *transport.Client
	sessions *SessionService
}

// NewAuthService creates a new authentication service
func NewAuthService(client *transport.Client, sessions *SessionService) *AuthService {
	return &AuthService{
		client:   client,
		sessions: sessions,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Login exchanges credentials for a token and persists the resulting session.
func (a *AuthService) Login(ctx context.Context, username, password string) (*core.User, error) {
	return a.authenticate(ctx, "/api/auth/login", credentialsRequest{
		Username: username,
		Password: password,
	})
}

// Register creates an account and persists the session the server returns.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (*core.User, error) {
	return a.authenticate(ctx, "/api/auth/register", credentialsRequest{
		Username: username,
		Password: password,
		Email:    email,
	})
}

func (a *AuthService) authenticate(ctx context.Context, path string, req credentialsRequest) (*core.User, error) {
	var resp authResponse
	if err := a.client.PostJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}

	if resp.Token == "" {
		return nil, fmt.Errorf("%w: no token in auth response", core.ErrMalformedResponse)
	}

	if err := a.sessions.SetSession(ctx, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return &resp.User, nil
}

// Logout destroys the local session. The bearer token is not revocable
// server-side, so there is no outbound call.
func (a *AuthService) Logout(ctx context.Context) error {
	return a.sessions.ClearSession(ctx)
}
