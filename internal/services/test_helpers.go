package services

import (
	"time"

	"order-backend/internal/domain"
)

func CreateMockOrder(id uint64, name, email string, status domain.OrderStatus, verified bool) *domain.Order {
	return &domain.Order{
		ID:           id,
		CustomerName: name,
		Email:        email,
		Status:       status,
		Verified:     verified,
		MetaData: domain.OrderMetaData{
			ID:       id,
			OrderID:  id,
			Currency: "EUR",
		},
		CreatedAt: time.Now(),
	}
}

func CreateMockLineItem(id, productID uint64, quantity int, basePrice float64, selected []string) domain.LineItem {
	return domain.LineItem{
		ID:                 id,
		ProductID:          productID,
		ProductName:        "Test Product",
		Quantity:           quantity,
		BasePrice:          basePrice,
		SelectedProperties: selected,
		ProductProperties: []domain.ProductProperty{
			{Label: "Color", Values: []domain.PropertyValue{{Value: "red"}, {Value: "blue"}}},
		},
	}
}

const (
	TestOrderID      = uint64(1)
	TestProductID    = uint64(7)
	TestCustomerName = "Alice Example"
	TestCustomerMail = "alice@example.com"
)
