package service

import (
	"context"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// Decision is the outcome of evaluating one navigation intent. When the
// navigation is not allowed, RedirectTo names the destination to go to
// instead; the original target is cancelled, never queued.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard decides, per navigation, whether the caller may proceed. It keeps no
// state between evaluations; every call is judged fresh against the current
// session.
type Guard struct {
	sessions    *SessionService
	loginPath   string
	defaultPath string
}

// NewGuard creates a guard redirecting unauthenticated callers to loginPath
// and authenticated callers leaving guest-only destinations to defaultPath.
// Empty paths fall back to "/login" and "/".
func NewGuard(sessions *SessionService, loginPath, defaultPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	if defaultPath == "" {
		defaultPath = "/"
	}

	return &Guard{
		sessions:    sessions,
		loginPath:   loginPath,
		defaultPath: defaultPath,
	}
}

// Evaluate applies the transition rules for one navigation target. A rule
// carrying both flags is resolved by checking RequiresAuth first.
func (g *Guard) Evaluate(ctx context.Context, rule core.RouteRule) Decision {
	authenticated := g.sessions.IsAuthenticated(ctx)

	switch {
	case rule.RequiresAuth && !authenticated:
		return Decision{RedirectTo: g.loginPath}
	case rule.RequiresGuest && authenticated:
		return Decision{RedirectTo: g.defaultPath}
	default:
		return Decision{Allowed: true}
	}
}

// Navigate commits a navigation through the guard: it evaluates the target's
// rule and navigates to either the target or the redirect destination. The
// committed path is returned.
func (g *Guard) Navigate(ctx context.Context, target string, rule core.RouteRule, nav ports.Navigator) string {
	decision := g.Evaluate(ctx, rule)

	dest := target
	if !decision.Allowed {
		dest = decision.RedirectTo
	}

	if nav != nil {
		nav.Navigate(dest)
	}

	return dest
}
