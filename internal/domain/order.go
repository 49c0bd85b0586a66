package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCanceled  OrderStatus = "CANCELED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID           uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerName string        `json:"customerName" gorm:"not null;index"`
	Email        string        `json:"email" gorm:"not null;index"`
	Phone        string        `json:"phone"`
	Address      string        `json:"address"`
	HouseNumber  string        `json:"houseNumber"`
	City         string        `json:"city"`
	PostalCode   string        `json:"postalCode"`
	Status       OrderStatus   `json:"status" gorm:"type:enum('PENDING','COMPLETED','CANCELED');default:'PENDING';index"`
	Verified     bool          `json:"verified" gorm:"default:false;index"`
	MetaData     OrderMetaData `json:"metaData" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TotalPrice is derived state. It is recomputed from the line items by the
// pricing resolver and never trusted as stored truth after an item changes.
type OrderMetaData struct {
	ID         uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64     `json:"-" gorm:"not null;uniqueIndex"`
	Currency   string     `json:"currency"`
	TotalPrice float64    `json:"totalPrice"`
	Items      []LineItem `json:"items" gorm:"foreignKey:MetaDataID;constraint:OnDelete:CASCADE"`
}

type LineItem struct {
	ID           uint64  `json:"id" gorm:"primaryKey;autoIncrement"`
	MetaDataID   uint64  `json:"-" gorm:"not null;index"`
	ProductID    uint64  `json:"productId" gorm:"not null;index"`
	ProductName  string  `json:"productName"`
	ProductImage *string `json:"productImage"`
	Quantity     int     `json:"quantity"`
	BasePrice    float64 `json:"basePrice"`
	// UnitPrice is the effective price after applying property overrides.
	UnitPrice          float64           `json:"unitPrice"`
	SelectedProperties []string          `json:"selectedProperties" gorm:"serializer:json"`
	ProductProperties  []ProductProperty `json:"productProperties" gorm:"serializer:json"`
}

type Product struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ItemQuantity is the per-product quantity payload of a verification toggle.
type ItemQuantity struct {
	ProductID uint64 `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}
