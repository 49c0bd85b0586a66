package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"order-backend/internal/domain"
	"order-backend/internal/repository"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

func (m *MockOrderRepository) FindCreatedSince(ctx context.Context, afterID uint64) ([]domain.Order, error) {
	args := m.Called(ctx, afterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) LatestOrderID(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPage(ctx context.Context, q repository.OrderQuery) ([]domain.Order, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Stats(ctx context.Context) (*repository.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.OrderStats), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveMetaData(ctx context.Context, meta *domain.OrderMetaData) error {
	args := m.Called(ctx, meta)
	return args.Error(0)
}

func (m *MockOrderRepository) ToggleVerification(ctx context.Context, id uint64, items []domain.ItemQuantity) (*domain.Order, error) {
	args := m.Called(ctx, id, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) DeleteByIDs(ctx context.Context, ids []uint64) (int64, []string, error) {
	args := m.Called(ctx, ids)
	if args.Get(1) == nil {
		return args.Get(0).(int64), nil, args.Error(2)
	}
	return args.Get(0).(int64), args.Get(1).([]string), args.Error(2)
}

type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) AdjustStock(ctx context.Context, productID uint64, delta int) error {
	args := m.Called(ctx, productID, delta)
	return args.Error(0)
}
