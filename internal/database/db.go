package database

import (
	"shopadmin/internal/model"
	"shopadmin/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.Branch{},
		&model.Category{},
		&model.Unit{},
		&model.Product{},
		&model.Customer{},
		&model.Order{},
		&model.OrderItem{},
		&model.BranchStock{},
		&model.InventoryImport{},
		&model.InventoryImportItem{},
		&model.AuditLog{},
	)
	if err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
