package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus constants
const (
	ImportStatusPending  = "PENDING"
	ImportStatusApproved = "APPROVED"
	ImportStatusRejected = "REJECTED"
)

// InventoryImport is a goods-receipt document. Stock only moves when the
// document is approved.
type InventoryImport struct {
	ID           uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         string                `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	BranchID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch       Branch                `gorm:"foreignKey:BranchID" json:"branch"`
	SupplierName string                `gorm:"type:varchar(255)" json:"supplier_name"`
	Status       string                `gorm:"type:varchar(50);default:'PENDING';index" json:"status"`
	Note         string                `gorm:"type:text" json:"note"`
	RejectReason string                `gorm:"type:text" json:"reject_reason,omitempty"`
	CreatedByID  *uuid.UUID            `gorm:"type:uuid;index" json:"created_by_id"`
	CreatedBy    *User                 `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	ReviewedByID *uuid.UUID            `gorm:"type:uuid" json:"reviewed_by_id"`
	ReviewedBy   *User                 `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time            `json:"reviewed_at"`
	Items        []InventoryImportItem `gorm:"foreignKey:ImportID" json:"items"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// InventoryImportItem is one received product line.
type InventoryImportItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ImportID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"import_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_cost"`
}
