package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"github.com/go-redis/redis/v8"

	"order-backend/internal/domain"
	rabbit "order-backend/internal/infra/rabbitmq"
	"order-backend/internal/pricing"
	"order-backend/internal/repository"
)

var (
	ErrOrderNotFound    = repository.ErrOrderNotFound
	ErrInvalidFilter    = errors.New("invalid filter key")
	ErrInvalidStatus    = errors.New("invalid order status")
	ErrLineItemNotFound = errors.New("line item not found")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	statsCacheKey = "orders:stats"
	statsCacheTTL = 30 * time.Second
)

// OrderPage is one listing response: the page, its counts under the same
// filter, and the unfiltered dashboard aggregates.
type OrderPage struct {
	Data        []domain.Order         `json:"data"`
	TotalItems  int64                  `json:"totalItems"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
	Aggregates  *repository.OrderStats `json:"aggregates"`
}

type OrderService struct {
	repo        repository.OrderRepository
	stocks      repository.StockRepository
	resolver    *pricing.Resolver
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
}

func NewOrderService(r repository.OrderRepository, resolver *pricing.Resolver, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		repo:      r,
		resolver:  resolver,
		publisher: pub,
	}
}

func (u *OrderService) SetRedisClient(client *redis.Client) {
	u.redisClient = client
}

func (u *OrderService) SetStockRepository(stocks repository.StockRepository) {
	u.stocks = stocks
}

func validFilterKey(key string) bool {
	switch key {
	case "", "verified", "unverified":
		return true
	}
	return domain.OrderStatus(key).Valid()
}

// ListOrders serves one filtered page plus aggregates. Every returned order
// passes through the pricing resolver so the client always sees effective
// unit prices and a consistent total.
func (u *OrderService) ListOrders(ctx context.Context, q repository.OrderQuery) (*OrderPage, error) {
	if !validFilterKey(q.FilterKey) {
		return nil, ErrInvalidFilter
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	orders, total, err := u.repo.FindPage(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		u.resolver.ResolveOrder(&orders[i])
	}

	stats, err := u.Stats(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.PageSize)))
	if orders == nil {
		orders = []domain.Order{}
	}
	return &OrderPage{
		Data:        orders,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: q.Page,
		Aggregates:  stats,
	}, nil
}

func (u *OrderService) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	u.resolver.ResolveOrder(o)
	return o, nil
}

// Stats returns the dashboard aggregates, cached in Redis for a short TTL.
func (u *OrderService) Stats(ctx context.Context) (*repository.OrderStats, error) {
	if u.redisClient != nil {
		cached, err := u.redisClient.Get(ctx, statsCacheKey).Result()
		if err == nil {
			var stats repository.OrderStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := u.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if u.redisClient != nil {
		if data, err := json.Marshal(stats); err == nil {
			u.redisClient.Set(ctx, statsCacheKey, data, statsCacheTTL)
		}
	}
	return stats, nil
}

// ToggleVerification flips the order's verified flag and reconciles product
// stock in the same transaction. Concurrent toggles surface as
// repository.ErrVerificationConflict, insufficient stock as
// repository.ErrInsufficientStock; neither is silently absorbed.
func (u *OrderService) ToggleVerification(ctx context.Context, id uint64, items []domain.ItemQuantity) (*domain.Order, error) {
	order, err := u.repo.ToggleVerification(ctx, id, items)
	if err != nil {
		return nil, err
	}

	u.invalidateStatsCache(ctx)

	pattern := rabbit.PatternOrderUnverified
	if order.Verified {
		pattern = rabbit.PatternOrderVerified
	}
	go u.publishOrderEvent(context.Background(), pattern, map[string]any{
		"orderId":  order.ID,
		"verified": order.Verified,
		"items":    items,
	})

	u.resolver.ResolveOrder(order)
	return order, nil
}

func (u *OrderService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	s := domain.OrderStatus(status)
	if !s.Valid() {
		return ErrInvalidStatus
	}
	if err := u.repo.UpdateStatus(ctx, id, s); err != nil {
		return err
	}
	u.invalidateStatsCache(ctx)
	return nil
}

// AdjustItemQuantity moves a line item's quantity by delta with a floor of
// one, then recomputes and persists the derived prices. The total is always
// rebuilt from the items, never incremented in place.
func (u *OrderService) AdjustItemQuantity(ctx context.Context, orderID, itemID uint64, delta int) (*domain.Order, error) {
	order, err := u.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	found := false
	for i := range order.MetaData.Items {
		item := &order.MetaData.Items[i]
		if item.ID != itemID {
			continue
		}
		item.Quantity += delta
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		found = true
		break
	}
	if !found {
		return nil, ErrLineItemNotFound
	}

	u.resolver.ResolveOrder(order)
	if err := u.repo.SaveMetaData(ctx, &order.MetaData); err != nil {
		return nil, err
	}
	return order, nil
}

func (u *OrderService) DeleteOrders(ctx context.Context, ids []uint64) (int64, []string, error) {
	deleted, names, err := u.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}

	u.invalidateStatsCache(ctx)
	go u.publishOrderEvent(context.Background(), rabbit.PatternOrderDeleted, map[string]any{
		"orderIds": ids,
		"deleted":  deleted,
	})
	return deleted, names, nil
}

// AdjustProductStock moves a product's stock by delta, for restocks and
// manual corrections outside the verification flow. The same row-locked
// rejection rules apply: stock never goes negative.
func (u *OrderService) AdjustProductStock(ctx context.Context, productID uint64, delta int) error {
	if u.stocks == nil {
		return errors.New("stock repository not configured")
	}
	return u.stocks.AdjustStock(ctx, productID, delta)
}

func (u *OrderService) invalidateStatsCache(ctx context.Context) {
	if u.redisClient == nil {
		return
	}
	u.redisClient.Del(ctx, statsCacheKey)
}

func (u *OrderService) publishOrderEvent(ctx context.Context, pattern string, data any) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, pattern, data); err != nil {
		log.Printf("Failed to publish %s event: %v", pattern, err)
	}
}
