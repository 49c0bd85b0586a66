package feed

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"order-backend/internal/domain"
)

// Subscriber is one attached stream consumer. Events arrive on a bounded
// channel; a consumer that stops draining loses events rather than blocking
// the poll loop.
type Subscriber struct {
	id string
	ch chan domain.FeedEvent
}

func (s *Subscriber) ID() string { return s.id }

func (s *Subscriber) Events() <-chan domain.FeedEvent { return s.ch }

// Broadcaster fans poller events out to every subscriber. There is exactly
// one producer (the poll loop); subscribers attach and detach freely.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buf    int
	closed bool
}

func NewBroadcaster(buf int) *Broadcaster {
	if buf <= 0 {
		buf = 16
	}
	return &Broadcaster{
		subs: make(map[string]*Subscriber),
		buf:  buf,
	}
}

func (b *Broadcaster) Subscribe() *Subscriber {
	s := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan domain.FeedEvent, b.buf),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s
	}
	b.subs[s.id] = s
	return s
}

func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s.id]; !ok {
		return
	}
	delete(b.subs, s.id)
	close(s.ch)
}

// Publish delivers the event to every subscriber without blocking. A full
// subscriber buffer means that consumer is too slow; the event is dropped
// for it and delivery to the others continues.
func (b *Broadcaster) Publish(ev domain.FeedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			log.Printf("feed: subscriber %s is not draining, dropping %s event", s.id, ev.Type)
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close detaches every subscriber; used on process shutdown.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
}
