package feed

import (
	"context"
	"log"
	"time"

	"order-backend/internal/domain"
	rabbit "order-backend/internal/infra/rabbitmq"
	"order-backend/internal/pricing"
	"order-backend/internal/repository"
)

// Cursor is the poller's bookmark. LastFetchedID keys the incremental
// query: the auto-increment id is strictly monotonic, so ties on creation
// time can neither duplicate nor gap the feed. LastFetchedAt is carried for
// logging only.
type Cursor struct {
	LastFetchedAt time.Time
	LastFetchedID uint64
}

// Poller converts the pull-style order store into a push stream. One poller
// runs per process and is the only owner of the cursor; any number of
// stream subscribers share its output through the broadcaster.
type Poller struct {
	repo      repository.OrderRepository
	resolver  *pricing.Resolver
	bus       *Broadcaster
	publisher rabbit.PublisherInterface
	interval  time.Duration
	cursor    Cursor
	seeded    bool
}

func NewPoller(repo repository.OrderRepository, resolver *pricing.Resolver, bus *Broadcaster, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		repo:     repo,
		resolver: resolver,
		bus:      bus,
		interval: interval,
	}
}

// SetPublisher attaches the broker publisher; each batch tick then also
// goes out as an order.feed event.
func (p *Poller) SetPublisher(pub rabbit.PublisherInterface) {
	p.publisher = pub
}

// Cursor returns a copy of the current bookmark.
func (p *Poller) Cursor() Cursor { return p.cursor }

// Run seeds the cursor at the newest stored order and then ticks until ctx
// is cancelled. A failed seed is retried on the next tick so the feed never
// replays the whole table from cursor zero. Store errors do not terminate
// the loop; they surface as an error event and the next tick retries.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.seed(ctx); err != nil {
		log.Printf("feed: cursor seed failed, retrying next tick: %v", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) seed(ctx context.Context) error {
	id, err := p.repo.LatestOrderID(ctx)
	if err != nil {
		return err
	}
	p.cursor.LastFetchedID = id
	p.cursor.LastFetchedAt = time.Now()
	p.seeded = true
	return nil
}

func (p *Poller) tick(ctx context.Context) {
	if !p.seeded {
		if err := p.seed(ctx); err != nil {
			log.Printf("feed: cursor seed failed, retrying next tick: %v", err)
			p.bus.Publish(domain.FeedEvent{Type: domain.FeedError, Err: err})
			return
		}
	}

	orders, err := p.repo.FindCreatedSince(ctx, p.cursor.LastFetchedID)
	if err != nil {
		log.Printf("feed: poll failed at cursor %d: %v", p.cursor.LastFetchedID, err)
		p.bus.Publish(domain.FeedEvent{Type: domain.FeedError, Err: err})
		return
	}

	if len(orders) == 0 {
		p.bus.Publish(domain.FeedEvent{Type: domain.FeedHeartbeat})
		return
	}

	last := orders[len(orders)-1]
	if last.ID == p.cursor.LastFetchedID {
		// The incremental query excludes the cursor row, so this only
		// happens when the store misbehaves. Heartbeat rather than
		// redeliver.
		p.bus.Publish(domain.FeedEvent{Type: domain.FeedHeartbeat})
		return
	}

	for i := range orders {
		p.resolver.ResolveOrder(&orders[i])
	}
	p.bus.Publish(domain.FeedEvent{Type: domain.FeedBatch, Orders: orders})
	if p.publisher != nil {
		go p.publishBatch(orders)
	}

	p.cursor.LastFetchedID = last.ID
	p.cursor.LastFetchedAt = last.CreatedAt
}

func (p *Poller) publishBatch(orders []domain.Order) {
	ids := make([]uint64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	err := p.publisher.Publish(context.Background(), rabbit.PatternOrderFeed, map[string]any{
		"orderIds": ids,
		"count":    len(orders),
	})
	if err != nil {
		log.Printf("Failed to publish %s event: %v", rabbit.PatternOrderFeed, err)
	}
}
