package model

import (
	"time"

	"github.com/google/uuid"
)

// Role groups permissions. The client only ever consumes the resolved
// permission set for its own role; the mapping lives here.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is a single capability identified by an opaque slug agreed with
// the dashboard, e.g. "create-products".
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Group       string    `gorm:"type:varchar(50);not null;index" json:"group"` // "products", "customers", ...
}
