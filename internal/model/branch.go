package model

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a physical store location.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchStock tracks the on-hand quantity of a product at one branch.
type BranchStock struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_product" json:"branch_id"`
	Branch    Branch    `gorm:"foreignKey:BranchID" json:"branch"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_branch_product" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int       `gorm:"type:int;default:0;not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
