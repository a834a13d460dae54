package models

import (
	"github.com/google/uuid"
)

// Bill statuses.
const (
	BillStatusUnpaid = "UNPAID"
	BillStatusPaid   = "PAID"
)

// Bill is the single open invoice per customer, accumulating
// delivered-but-unbilled order charges. At most one UNPAID bill exists
// per customer at any time; TotalAmount always equals the sum of
// item price times quantity over the full item list.
type Bill struct {
	BaseModel
	CustomerID   uuid.UUID  `gorm:"type:uuid;index" json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	Items        []BillItem `json:"items,omitempty"`
	TotalAmount  float64    `json:"total_amount"`
	Status       string     `gorm:"default:UNPAID" json:"status"`
}

// BillItem is one accumulated charge line. Items repeating the same
// product across reconciliations are kept as distinct entries, never
// merged.
type BillItem struct {
	BaseModel
	BillID    uuid.UUID `gorm:"type:uuid;index" json:"bill_id"`
	ProductID int       `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
}
