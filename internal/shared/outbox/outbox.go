package outbox

import "time"

// Message is an outbox row persisted inside the same DB transaction as the
// state change that produced it. Worker relays read pending rows and publish
// them to the message bus.
type Message struct {
	ID          string
	EventType   string
	Payload     []byte
	Status      string // pending, published, failed
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}
