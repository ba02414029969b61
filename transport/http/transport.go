package http

import (
	"context"
	"net/http"

	"github.com/webgate-io/authgate/ports"
)

// SessionState is the slice of the session service the pipeline needs: a
// token to attach on the way out and an invalidation hook for the way in.
type SessionState interface {
	Token(ctx context.Context) string
	ClearSession(ctx context.Context) error
}

// Transport wraps every outbound request with the two pipeline hooks:
// outgoing, attach the bearer credential when a token is present; incoming,
// treat any 401 as session expiry, tear the session down, publish the expiry
// event and force navigation to the login destination. The response is passed
// through unchanged either way, so the caller still sees the failure. The
// hooks fire for every request regardless of endpoint.
type Transport struct {
	base      http.RoundTripper
	sessions  SessionState
	nav       ports.Navigator
	events    ports.EventPublisher
	loginPath string
}

// NewTransport creates the pipeline transport. base defaults to
// http.DefaultTransport and loginPath to "/login"; nav and events may be nil.
func NewTransport(base http.RoundTripper, sessions SessionState, nav ports.Navigator, events ports.EventPublisher, loginPath string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if loginPath == "" {
		loginPath = "/login"
	}

	return &Transport{
		base:      base,
		sessions:  sessions,
		nav:       nav,
		events:    events,
		loginPath: loginPath,
	}
}

var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if t.sessions != nil {
		if token := t.sessions.Token(r.Context()); token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.expireSession(r.Context())
	}

	return resp, nil
}

// expireSession runs the global teardown policy. ClearSession is idempotent,
// so concurrent 401s racing into here are harmless.
func (t *Transport) expireSession(ctx context.Context) {
	if t.sessions != nil {
		_ = t.sessions.ClearSession(ctx)
	}

	if t.events != nil {
		_ = t.events.PublishSessionExpired(ctx, "unauthorized response")
	}

	if t.nav != nil {
		t.nav.Navigate(t.loginPath)
	}
}
