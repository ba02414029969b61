package ports

import (
	"context"

	"github.com/webgate-io/authgate/core"
)

// EventPublisher publishes session lifecycle events so other parts of the
// client can react to logins, logouts and server-declared expiry.
type EventPublisher interface {
	PublishLogin(ctx context.Context, user *core.User) error
	PublishLogout(ctx context.Context) error
	PublishSessionExpired(ctx context.Context, reason string) error
}
