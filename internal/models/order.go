package models

import (
	"time"

	"github.com/google/uuid"
)

// Order status lifecycle. Transitions are not validated; any status may
// be set from any other.
const (
	OrderStatusPending        = "PENDING"
	OrderStatusPreparing      = "PREPARING"
	OrderStatusOutForDelivery = "OUT FOR DELIVERY"
	OrderStatusDelivered      = "DELIVERED"
)

// Order is a placed purchase. Line item name/price are snapshotted at
// creation time so historical bills stay accurate when catalogue prices
// change. IsBilled becomes true at most once, as a side effect of the
// transition to DELIVERED.
type Order struct {
	BaseModel
	UserID        uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User          *User       `json:"user,omitempty"`
	OrderNumber   string      `gorm:"uniqueIndex" json:"order_number"`
	CustomerEmail string      `gorm:"index" json:"customer_email"`
	Status        string      `json:"status"`
	TotalAmount   float64     `json:"total_amount"`
	IsBilled      bool        `json:"is_billed"`
	PlacedAt      time.Time   `json:"placed_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of one ordered menu item.
type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	MenuItemID int       `json:"menu_item_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
}
