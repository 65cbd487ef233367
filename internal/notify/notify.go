// Package notify decouples alerting from the request path: producers append
// messages to a process-wide FIFO and a single background consumer delivers
// them through a Notifier. Delivery is fire and forget.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Message is one queued notification.
type Message struct {
	ID        uuid.UUID
	Subject   string
	Body      string
	Recipient string
}

// Notifier is the delivery capability (SMTP in production).
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Queuer is the producer-side surface components depend on.
type Queuer interface {
	Enqueue(subject, body, recipient string)
}
