package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionUpdateCustomer = "UPDATE_CUSTOMER"
	ActionDeleteCustomer = "DELETE_CUSTOMER"
	ActionImportCustomer = "IMPORT_CUSTOMERS"

	ActionCreateOrder       = "CREATE_ORDER"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"

	ActionAdjustStock   = "ADJUST_STOCK"
	ActionCreateImport  = "CREATE_IMPORT"
	ActionApproveImport = "APPROVE_IMPORT"
	ActionRejectImport  = "REJECT_IMPORT"

	ActionCreateUser            = "CREATE_USER"
	ActionUpdateUser            = "UPDATE_USER"
	ActionDeleteUser            = "DELETE_USER"
	ActionUpdateRolePermissions = "UPDATE_ROLE_PERMISSIONS"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated jobs
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
