package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"order-backend/internal/domain"
	rabbit "order-backend/internal/infra/rabbitmq"
	"order-backend/internal/mocks"
	"order-backend/internal/pricing"
	"order-backend/internal/repository"
)

func newTestService(repo repository.OrderRepository, pub rabbit.PublisherInterface) *OrderService {
	return NewOrderService(repo, pricing.NewResolver(), pub)
}

func TestOrderService_ListOrders(t *testing.T) {
	stats := &repository.OrderStats{TotalOrders: 25, Pending: 20, Completed: 3, Canceled: 2, Verified: 5, Unverified: 20}

	tests := []struct {
		name          string
		query         repository.OrderQuery
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError error
		expectedLen   int
		expectedPages int
		expectedPage  int
	}{
		{
			name:  "full first page with defaults applied",
			query: repository.OrderQuery{Page: 0, PageSize: 0},
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				orders := make([]domain.Order, DefaultPageSize)
				for i := range orders {
					orders[i] = *CreateMockOrder(uint64(i+1), TestCustomerName, TestCustomerMail, domain.StatusPending, false)
				}
				mockRepo.On("FindPage", mock.Anything, repository.OrderQuery{Page: 1, PageSize: DefaultPageSize}).
					Return(orders, int64(25), nil)
				mockRepo.On("Stats", mock.Anything).Return(stats, nil)
			},
			expectedLen:   10,
			expectedPages: 3,
			expectedPage:  1,
		},
		{
			name:  "short last page",
			query: repository.OrderQuery{Page: 3, PageSize: 10},
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				orders := make([]domain.Order, 5)
				for i := range orders {
					orders[i] = *CreateMockOrder(uint64(i+21), TestCustomerName, TestCustomerMail, domain.StatusPending, false)
				}
				mockRepo.On("FindPage", mock.Anything, mock.AnythingOfType("repository.OrderQuery")).
					Return(orders, int64(25), nil)
				mockRepo.On("Stats", mock.Anything).Return(stats, nil)
			},
			expectedLen:   5,
			expectedPages: 3,
			expectedPage:  3,
		},
		{
			name:  "page beyond the last returns an empty slice",
			query: repository.OrderQuery{Page: 9, PageSize: 10},
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindPage", mock.Anything, mock.AnythingOfType("repository.OrderQuery")).
					Return([]domain.Order{}, int64(25), nil)
				mockRepo.On("Stats", mock.Anything).Return(stats, nil)
			},
			expectedLen:   0,
			expectedPages: 3,
			expectedPage:  9,
		},
		{
			name:          "invalid filter key rejected",
			query:         repository.OrderQuery{Page: 1, PageSize: 10, FilterKey: "SHIPPED"},
			setupMocks:    func(mockRepo *mocks.MockOrderRepository) {},
			expectedError: ErrInvalidFilter,
		},
		{
			name:  "repository error propagates",
			query: repository.OrderQuery{Page: 1, PageSize: 10},
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindPage", mock.Anything, mock.AnythingOfType("repository.OrderQuery")).
					Return(nil, int64(0), errors.New("database error"))
			},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			mockPublisher := new(mocks.MockPublisher)
			tt.setupMocks(mockRepo)

			service := newTestService(mockRepo, mockPublisher)
			result, err := service.ListOrders(context.Background(), tt.query)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.Len(t, result.Data, tt.expectedLen)
				assert.Equal(t, int64(25), result.TotalItems)
				assert.Equal(t, tt.expectedPages, result.TotalPages)
				assert.Equal(t, tt.expectedPage, result.CurrentPage)
				assert.Equal(t, stats, result.Aggregates)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestOrderService_ListOrders_ResolvesPrices(t *testing.T) {
	mockRepo := new(mocks.MockOrderRepository)
	mockPublisher := new(mocks.MockPublisher)

	order := CreateMockOrder(1, TestCustomerName, TestCustomerMail, domain.StatusPending, false)
	order.MetaData.Items = []domain.LineItem{
		CreateMockLineItem(1, TestProductID, 2, 100,
			[]string{`{"key":"Color","value":"red","price":20,"changePrice":true}`}),
		CreateMockLineItem(2, 8, 1, 50, nil),
	}
	order.MetaData.TotalPrice = 123 // stale stored value, must be overwritten

	mockRepo.On("FindPage", mock.Anything, mock.AnythingOfType("repository.OrderQuery")).
		Return([]domain.Order{*order}, int64(1), nil)
	mockRepo.On("Stats", mock.Anything).Return(&repository.OrderStats{TotalOrders: 1}, nil)

	service := newTestService(mockRepo, mockPublisher)
	result, err := service.ListOrders(context.Background(), repository.OrderQuery{Page: 1, PageSize: 10})

	assert.NoError(t, err)
	assert.Len(t, result.Data, 1)
	items := result.Data[0].MetaData.Items
	assert.Equal(t, 120.0, items[0].UnitPrice)
	assert.Equal(t, 50.0, items[1].UnitPrice)
	assert.Equal(t, 290.0, result.Data[0].MetaData.TotalPrice)
	mockRepo.AssertExpectations(t)
}

func TestOrderService_GetOrder(t *testing.T) {
	tests := []struct {
		name          string
		orderID       uint64
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError error
	}{
		{
			name:    "successful order retrieval",
			orderID: 1,
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, uint64(1)).
					Return(CreateMockOrder(1, TestCustomerName, TestCustomerMail, domain.StatusPending, false), nil)
			},
		},
		{
			name:    "order not found",
			orderID: 999,
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, uint64(999)).Return(nil, nil)
			},
			expectedError: ErrOrderNotFound,
		},
		{
			name:    "repository error",
			orderID: 1,
			setupMocks: func(mockRepo *mocks.MockOrderRepository) {
				mockRepo.On("FindByID", mock.Anything, uint64(1)).Return(nil, errors.New("database connection error"))
			},
			expectedError: errors.New("database connection error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			mockPublisher := new(mocks.MockPublisher)
			tt.setupMocks(mockRepo)

			service := newTestService(mockRepo, mockPublisher)
			result, err := service.GetOrder(context.Background(), tt.orderID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				if errors.Is(tt.expectedError, ErrOrderNotFound) {
					assert.Equal(t, ErrOrderNotFound, err)
				} else {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				}
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.Equal(t, tt.orderID, result.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestOrderService_ToggleVerification(t *testing.T) {
	items := []domain.ItemQuantity{{ProductID: TestProductID, Quantity: 2}}

	tests := []struct {
		name           string
		setupMocks     func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError  error
		expectVerified bool
	}{
		{
			name: "verify publishes order.verified",
			setupMocks: func(mockRepo *mocks.MockOrderRepository, mockPub *mocks.MockPublisher) {
				mockRepo.On("ToggleVerification", mock.Anything, TestOrderID, items).
					Return(CreateMockOrder(TestOrderID, TestCustomerName, TestCustomerMail, domain.StatusPending, true), nil)
				mockPub.On("Publish", mock.Anything, "order.verified", mock.Anything).Return(nil).Maybe()
			},
			expectVerified: true,
		},
		{
			name: "unverify publishes order.unverified",
			setupMocks: func(mockRepo *mocks.MockOrderRepository, mockPub *mocks.MockPublisher) {
				mockRepo.On("ToggleVerification", mock.Anything, TestOrderID, items).
					Return(CreateMockOrder(TestOrderID, TestCustomerName, TestCustomerMail, domain.StatusPending, false), nil)
				mockPub.On("Publish", mock.Anything, "order.unverified", mock.Anything).Return(nil).Maybe()
			},
			expectVerified: false,
		},
		{
			name: "concurrent toggle reported as conflict",
			setupMocks: func(mockRepo *mocks.MockOrderRepository, mockPub *mocks.MockPublisher) {
				mockRepo.On("ToggleVerification", mock.Anything, TestOrderID, items).
					Return(nil, repository.ErrVerificationConflict)
			},
			expectedError: repository.ErrVerificationConflict,
		},
		{
			name: "insufficient stock rejected, not clamped",
			setupMocks: func(mockRepo *mocks.MockOrderRepository, mockPub *mocks.MockPublisher) {
				mockRepo.On("ToggleVerification", mock.Anything, TestOrderID, items).
					Return(nil, repository.ErrInsufficientStock)
			},
			expectedError: repository.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			mockPublisher := new(mocks.MockPublisher)
			tt.setupMocks(mockRepo, mockPublisher)

			service := newTestService(mockRepo, mockPublisher)
			result, err := service.ToggleVerification(context.Background(), TestOrderID, items)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectVerified, result.Verified)
				time.Sleep(50 * time.Millisecond) // async publish
			}

			mockRepo.AssertExpectations(t)
			mockPublisher.AssertExpectations(t)
		})
	}
}

func TestOrderService_AdjustItemQuantity(t *testing.T) {
	newOrder := func(qty int) *domain.Order {
		o := CreateMockOrder(TestOrderID, TestCustomerName, TestCustomerMail, domain.StatusPending, false)
		o.MetaData.Items = []domain.LineItem{CreateMockLineItem(1, TestProductID, qty, 100, nil)}
		return o
	}

	tests := []struct {
		name          string
		startQty      int
		delta         int
		expectedQty   int
		expectedTotal float64
	}{
		{"increment recomputes the total", 2, 1, 3, 300},
		{"decrement stops at the floor of one", 1, -1, 1, 100},
		{"large negative delta still floors at one", 5, -99, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(mocks.MockOrderRepository)
			mockPublisher := new(mocks.MockPublisher)

			mockRepo.On("FindByID", mock.Anything, TestOrderID).Return(newOrder(tt.startQty), nil)
			mockRepo.On("SaveMetaData", mock.Anything, mock.AnythingOfType("*domain.OrderMetaData")).Return(nil)

			service := newTestService(mockRepo, mockPublisher)
			result, err := service.AdjustItemQuantity(context.Background(), TestOrderID, 1, tt.delta)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedQty, result.MetaData.Items[0].Quantity)
			assert.Equal(t, tt.expectedTotal, result.MetaData.TotalPrice)
			mockRepo.AssertExpectations(t)
		})
	}

	t.Run("unknown line item", func(t *testing.T) {
		mockRepo := new(mocks.MockOrderRepository)
		mockPublisher := new(mocks.MockPublisher)
		mockRepo.On("FindByID", mock.Anything, TestOrderID).Return(newOrder(2), nil)

		service := newTestService(mockRepo, mockPublisher)
		_, err := service.AdjustItemQuantity(context.Background(), TestOrderID, 42, 1)
		assert.ErrorIs(t, err, ErrLineItemNotFound)
	})
}

func TestOrderService_DeleteOrders(t *testing.T) {
	mockRepo := new(mocks.MockOrderRepository)
	mockPublisher := new(mocks.MockPublisher)

	ids := []uint64{1, 2, 3}
	mockRepo.On("DeleteByIDs", mock.Anything, ids).Return(int64(2), []string{"Alice", "Bob"}, nil)
	mockPublisher.On("Publish", mock.Anything, "order.deleted", mock.Anything).Return(nil).Maybe()

	service := newTestService(mockRepo, mockPublisher)
	deleted, names, err := service.DeleteOrders(context.Background(), ids)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"Alice", "Bob"}, names)

	time.Sleep(50 * time.Millisecond)
	mockRepo.AssertExpectations(t)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Run("valid status", func(t *testing.T) {
		mockRepo := new(mocks.MockOrderRepository)
		mockRepo.On("UpdateStatus", mock.Anything, TestOrderID, domain.StatusCompleted).Return(nil)

		service := newTestService(mockRepo, new(mocks.MockPublisher))
		assert.NoError(t, service.UpdateStatus(context.Background(), TestOrderID, "COMPLETED"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid status rejected before the store is touched", func(t *testing.T) {
		mockRepo := new(mocks.MockOrderRepository)
		service := newTestService(mockRepo, new(mocks.MockPublisher))
		assert.ErrorIs(t, service.UpdateStatus(context.Background(), TestOrderID, "SHIPPED"), ErrInvalidStatus)
		mockRepo.AssertExpectations(t)
	})
}
