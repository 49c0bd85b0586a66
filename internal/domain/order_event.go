package domain

type FeedEventType string

const (
	FeedBatch     FeedEventType = "batch"
	FeedHeartbeat FeedEventType = "heartbeat"
	FeedError     FeedEventType = "error"
)

// FeedEvent is one tick's outcome of the change-feed poller: a batch of
// newly observed orders, an empty heartbeat, or a transient store error.
type FeedEvent struct {
	Type   FeedEventType
	Orders []Order
	Err    error
}
