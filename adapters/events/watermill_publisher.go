package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/ports"
)

// Topics for session lifecycle events.
const (
	TopicLogin   = "session.login"
	TopicLogout  = "session.logout"
	TopicExpired = "session.expired"
)

// LoginEvent is published when a session is established.
type LoginEvent struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// LogoutEvent is published when a session is explicitly cleared.
type LogoutEvent struct{}

// ExpiredEvent is published when the server declares the session invalid and
// the client tears it down.
type ExpiredEvent struct {
	Reason string `json:"reason"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, user *core.User) error {
	event := LoginEvent{}
	if user != nil {
		event.UserID = user.ID
		event.Username = user.Username
	}

	return p.publish(TopicLogin, event)
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context) error {
	return p.publish(TopicLogout, LogoutEvent{})
}

// PublishSessionExpired publishes a session-expired event
func (p *WatermillPublisher) PublishSessionExpired(ctx context.Context, reason string) error {
	return p.publish(TopicExpired, ExpiredEvent{Reason: reason})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
