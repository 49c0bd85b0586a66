package rabbitmq

import "context"

// Routing keys for order lifecycle events.
const (
	PatternOrderFeed       = "order.feed"
	PatternOrderVerified   = "order.verified"
	PatternOrderUnverified = "order.unverified"
	PatternOrderDeleted    = "order.deleted"
)

type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

var _ PublisherInterface = (*Publisher)(nil)
