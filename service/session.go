package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// Keys under which the session is persisted in the durable store.
const (
	tokenKey = "session.token"
	userKey  = "session.user"
)

// SessionService is the single writer of the persisted session. Everything
// else (guard, pipeline, orchestrator) reads through it or asks it to
// invalidate.
type SessionService struct {
	store  ports.KeyValueStore
	events ports.EventPublisher
}

// NewSessionService creates a session service over store. events may be nil
// when lifecycle events are not needed.
func NewSessionService(store ports.KeyValueStore, events ports.EventPublisher) *SessionService {
	return &SessionService{
		store:  store,
		events: events,
	}
}

// SetSession persists the token and user profile, overwriting any prior
// session. The user is written before the token, and a failed token write
// rolls the profile back, so a reader never observes a profile without a
// token to vouch for it.
func (s *SessionService) SetSession(ctx context.Context, token string, user *core.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}

	if err := s.store.Set(ctx, userKey, string(raw)); err != nil {
		return fmt.Errorf("failed to persist user profile: %w", err)
	}

	if err := s.store.Set(ctx, tokenKey, token); err != nil {
		_ = s.store.Delete(ctx, userKey)
		return fmt.Errorf("failed to persist token: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishLogin(ctx, user)
	}

	return nil
}

// ClearSession removes the token and profile. It is idempotent: clearing an
// absent session is a no-op, and a logout event is published only when a
// session actually existed.
func (s *SessionService) ClearSession(ctx context.Context) error {
	existed := s.Token(ctx) != ""

	if err := s.store.Delete(ctx, tokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	if err := s.store.Delete(ctx, userKey); err != nil {
		return fmt.Errorf("failed to clear user profile: %w", err)
	}

	if existed && s.events != nil {
		_ = s.events.PublishLogout(ctx)
	}

	return nil
}

// Token returns the persisted bearer token, or empty when no session exists.
func (s *SessionService) Token(ctx context.Context) string {
	value, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		return ""
	}

	return value
}

// User returns the persisted profile, or nil when no session exists. A stored
// profile that cannot be parsed fails closed: the corrupted session is wiped
// and nil is returned instead of an error.
func (s *SessionService) User(ctx context.Context) *core.User {
	raw, err := s.store.Get(ctx, userKey)
	if err != nil {
		return nil
	}

	if raw == "" || raw == "null" {
		return nil
	}

	var user core.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		_ = s.ClearSession(ctx)
		return nil
	}

	return &user
}

// IsAuthenticated reports whether a non-empty token is present. An empty
// stored token counts as unauthenticated.
func (s *SessionService) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Session returns the current session as one value.
func (s *SessionService) Session(ctx context.Context) core.Session {
	return core.Session{
		Token: s.Token(ctx),
		User:  s.User(ctx),
	}
}

// TokenExpiresAt reports the expiry of a JWT-shaped token without verifying
// it. The token stays opaque to the client; this is only a best-effort peek,
// and opaque or claim-less tokens report no expiry.
func (s *SessionService) TokenExpiresAt(ctx context.Context) (time.Time, bool) {
	token := s.Token(ctx)
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}

	return claims.ExpiresAt.Time, true
}
