package repository

import (
	"context"

	"shopadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportFilter narrows the goods-receipt listing.
type ImportFilter struct {
	Status string
	Page   int
	Limit  int
}

type ImportRepository interface {
	Create(ctx context.Context, doc *model.InventoryImport) error
	Update(ctx context.Context, doc *model.InventoryImport) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.InventoryImport, error)
	List(ctx context.Context, filter ImportFilter) ([]model.InventoryImport, int64, error)
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) Create(ctx context.Context, doc *model.InventoryImport) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *importRepository) Update(ctx context.Context, doc *model.InventoryImport) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *importRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.InventoryImport, error) {
	var doc model.InventoryImport
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Branch").
		Preload("CreatedBy").
		Preload("ReviewedBy").
		First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *importRepository) List(ctx context.Context, filter ImportFilter) ([]model.InventoryImport, int64, error) {
	var docs []model.InventoryImport
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryImport{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Branch").
		Preload("CreatedBy").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}
