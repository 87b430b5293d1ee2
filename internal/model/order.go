package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipping  = "SHIPPING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order is a sales order placed for a customer and fulfilled by a branch.
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	CustomerID *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer   *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BranchID   *uuid.UUID      `gorm:"type:uuid;index" json:"branch_id"`
	Branch     *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Status     string          `gorm:"type:varchar(50);default:'PENDING';index" json:"status"`
	Note       string          `gorm:"type:text" json:"note"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderItem is a line item within an Order.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}
