package notify

import (
	"context"

	"github.com/starford/callerid/internal/sse"
)

// EventNotification is the SSE event type for notifications.
const EventNotification = "notification"

// SSENotifier publishes notifications to connected SSE clients.
type SSENotifier struct {
	Broker *sse.Broker
}

// Notify broadcasts n. Clients that are not connected miss it; nothing is queued.
func (s SSENotifier) Notify(_ context.Context, n Notification) error {
	s.Broker.Publish(sse.Event{Type: EventNotification, ID: n.ID, Data: n})
	return nil
}
