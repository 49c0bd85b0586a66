package repository

import (
	"context"
	"errors"

	"order-backend/internal/domain"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	// ErrVerificationConflict means the verified flag changed between read
	// and write, i.e. a concurrent toggle won the race.
	ErrVerificationConflict = errors.New("verification state changed concurrently")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

// OrderQuery describes one page request against the order listing.
type OrderQuery struct {
	Page       int
	PageSize   int
	Search     string // case-insensitive substring over customer name/email
	FilterKey  string // "", a status, or "verified"/"unverified"
	SortAscend bool   // by creation time; default newest first
}

// OrderStats are dashboard aggregates computed over the unfiltered set.
type OrderStats struct {
	TotalOrders int64 `json:"totalOrders"`
	Pending     int64 `json:"pending"`
	Completed   int64 `json:"completed"`
	Canceled    int64 `json:"canceled"`
	Verified    int64 `json:"verified"`
	Unverified  int64 `json:"unverified"`
}

type OrderRepository interface {
	// FindCreatedSince returns orders with id > afterID, ascending by id.
	// The auto-increment id is the poller's strictly monotonic cursor.
	FindCreatedSince(ctx context.Context, afterID uint64) ([]domain.Order, error)
	// LatestOrderID seeds the cursor so a fresh poller only sees new orders.
	LatestOrderID(ctx context.Context) (uint64, error)

	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	// FindPage returns one page plus the total row count under the same
	// filter predicate.
	FindPage(ctx context.Context, q OrderQuery) ([]domain.Order, int64, error)
	Stats(ctx context.Context) (*OrderStats, error)

	UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error
	// SaveMetaData persists recomputed line items and the derived total.
	SaveMetaData(ctx context.Context, meta *domain.OrderMetaData) error
	// ToggleVerification flips the verified flag and applies the stock
	// deltas in one transaction. Returns ErrVerificationConflict when a
	// concurrent toggle interferes and ErrInsufficientStock when verifying
	// would drive a product's stock negative.
	ToggleVerification(ctx context.Context, id uint64, items []domain.ItemQuantity) (*domain.Order, error)
	DeleteByIDs(ctx context.Context, ids []uint64) (int64, []string, error)
}

// StockRepository serializes quantity adjustments per product.
type StockRepository interface {
	AdjustStock(ctx context.Context, productID uint64, delta int) error
}
