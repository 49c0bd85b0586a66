package mysql

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-backend/internal/domain"
	"order-backend/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) FindCreatedSince(ctx context.Context, afterID uint64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("MetaData.Items").
		Preload("MetaData").
		Where("id > ?", afterID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		log.Printf("FindCreatedSince error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) LatestOrderID(ctx context.Context) (uint64, error) {
	var id *uint64
	if err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("MAX(id)").
		Scan(&id).Error; err != nil {
		return 0, err
	}
	if id == nil {
		return 0, nil
	}
	return *id, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("MetaData.Items").
		Preload("MetaData").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindByID error: %v", err)
		return nil, err
	}
	return &o, nil
}

// applyFilter keeps the page query and its count query on the same
// predicate.
func applyFilter(tx *gorm.DB, q repository.OrderQuery) *gorm.DB {
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(customer_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	switch q.FilterKey {
	case "":
	case "verified":
		tx = tx.Where("verified = ?", true)
	case "unverified":
		tx = tx.Where("verified = ?", false)
	default:
		tx = tx.Where("status = ?", q.FilterKey)
	}
	return tx
}

func (r *orderRepo) FindPage(ctx context.Context, q repository.OrderQuery) ([]domain.Order, int64, error) {
	base := applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), q)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		log.Printf("FindPage count error: %v", err)
		return nil, 0, err
	}

	direction := "DESC"
	if q.SortAscend {
		direction = "ASC"
	}

	var out []domain.Order
	err := applyFilter(r.db.WithContext(ctx).Model(&domain.Order{}), q).
		Preload("MetaData.Items").
		Preload("MetaData").
		Order("created_at " + direction).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&out).Error
	if err != nil {
		log.Printf("FindPage error: %v", err)
		return nil, 0, err
	}
	return out, total, nil
}

func (r *orderRepo) Stats(ctx context.Context) (*repository.OrderStats, error) {
	db := r.db.WithContext(ctx).Model(&domain.Order{})
	stats := &repository.OrderStats{}

	if err := db.Session(&gorm.Session{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	counts := []struct {
		dest  *int64
		query string
		arg   any
	}{
		{&stats.Pending, "status = ?", domain.StatusPending},
		{&stats.Completed, "status = ?", domain.StatusCompleted},
		{&stats.Canceled, "status = ?", domain.StatusCanceled},
		{&stats.Verified, "verified = ?", true},
		{&stats.Unverified, "verified = ?", false},
	}
	for _, c := range counts {
		if err := db.Session(&gorm.Session{}).Where(c.query, c.arg).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) SaveMetaData(ctx context.Context, meta *domain.OrderMetaData) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.OrderMetaData{}).
			Where("id = ?", meta.ID).
			Update("total_price", meta.TotalPrice).Error; err != nil {
			return err
		}
		for i := range meta.Items {
			item := &meta.Items[i]
			if err := tx.Model(&domain.LineItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]any{
					"quantity":   item.Quantity,
					"unit_price": item.UnitPrice,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ToggleVerification is the reconciler's critical section: the order row is
// locked for the duration, the verified flag flips through a compare-and-
// swap, and each product row is locked before its stock moves. Verifying
// consumes stock and is rejected outright when any product cannot cover its
// quantity; un-verifying restores stock.
func (r *orderRepo) ToggleVerification(ctx context.Context, id uint64, items []domain.ItemQuantity) (*domain.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order domain.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrOrderNotFound
			}
			return err
		}

		verifying := !order.Verified
		for _, it := range items {
			if err := adjustStockTx(tx, it.ProductID, verifyDelta(verifying, it.Quantity)); err != nil {
				return err
			}
		}

		res := tx.Model(&domain.Order{}).
			Where("id = ? AND verified = ?", id, order.Verified).
			Update("verified", verifying)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrVerificationConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, repository.ErrOrderNotFound
	}
	return updated, nil
}

func (r *orderRepo) DeleteByIDs(ctx context.Context, ids []uint64) (int64, []string, error) {
	var deleted int64
	var names []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders []domain.Order
		if err := tx.Where("id IN ?", ids).Find(&orders).Error; err != nil {
			return err
		}
		for _, o := range orders {
			names = append(names, o.CustomerName)
		}

		var metaIDs []uint64
		if err := tx.Model(&domain.OrderMetaData{}).
			Where("order_id IN ?", ids).
			Pluck("id", &metaIDs).Error; err != nil {
			return err
		}
		if len(metaIDs) > 0 {
			if err := tx.Where("meta_data_id IN ?", metaIDs).
				Delete(&domain.LineItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", metaIDs).
				Delete(&domain.OrderMetaData{}).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", ids).Delete(&domain.Order{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return deleted, names, nil
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) repository.StockRepository {
	return &stockRepo{db: db}
}

func (r *stockRepo) AdjustStock(ctx context.Context, productID uint64, delta int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return adjustStockTx(tx, productID, delta)
	})
}

// verifyDelta is the stock movement for one line item: verifying consumes
// stock, un-verifying restores it.
func verifyDelta(verifying bool, quantity int) int {
	if verifying {
		return -quantity
	}
	return quantity
}

// stockAfter applies delta to a stock level. Stock never goes negative: a
// decrement that will not fit is rejected, not clamped.
func stockAfter(stock, delta int) (int, error) {
	if stock+delta < 0 {
		return stock, repository.ErrInsufficientStock
	}
	return stock + delta, nil
}

// adjustStockTx moves a product's stock under a row lock.
func adjustStockTx(tx *gorm.DB, productID uint64, delta int) error {
	var product domain.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d: %w", productID, repository.ErrProductNotFound)
		}
		return err
	}
	next, err := stockAfter(product.Stock, delta)
	if err != nil {
		return fmt.Errorf("product %s needs %d, has %d: %w",
			product.Name, -delta, product.Stock, err)
	}
	product.Stock = next
	return tx.Save(&product).Error
}
