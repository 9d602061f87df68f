package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"spendlog/internal/notify"
)

// NotificationSink fans budget notifications out over the broker so
// connected clients can surface them.
type NotificationSink struct {
	client     *Client
	routingKey string
}

var _ notify.Sink = (*NotificationSink)(nil)

// NewNotificationSink publishes to routingKey, defaulting to the
// notifications queue every client binds at setup.
func NewNotificationSink(client *Client, routingKey string) *NotificationSink {
	if routingKey == "" {
		routingKey = notificationsQueue
	}
	return &NotificationSink{client: client, routingKey: routingKey}
}

func (s *NotificationSink) Publish(ctx context.Context, n notify.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.client.publishTo(ctx, s.routingKey, body)
}
