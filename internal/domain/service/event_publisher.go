package service

import "context"

// OrderCompletedEvent is emitted once a completion screen load resolves to a
// final successful payment. Downstream consumers (fulfilment, mail) are out
// of scope here; the storefront only publishes.
type OrderCompletedEvent struct {
	RequestID       string `json:"request_id,omitempty"` // For distributed tracing
	GuestID         string `json:"guest_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	CompletedAt     string `json:"completed_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishOrderCompleted publishes an order-completed event for async processing
	PublishOrderCompleted(ctx context.Context, event *OrderCompletedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
