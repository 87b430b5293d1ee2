package repository

import (
	"context"

	"shopadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	Update(ctx context.Context, branch *model.Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	ListAll(ctx context.Context) ([]model.Branch, error)

	ListStock(ctx context.Context, branchID *uuid.UUID) ([]model.BranchStock, error)
	FindStockForUpdate(ctx context.Context, branchID, productID uuid.UUID) (*model.BranchStock, error)
	UpsertStock(ctx context.Context, stock *model.BranchStock) error
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *branchRepository) Update(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Save(branch).Error
}

func (r *branchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) ListAll(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	if err := GetDB(ctx, r.db).Order("code asc").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// ListStock returns stock rows for one branch, or all branches when nil.
func (r *branchRepository) ListStock(ctx context.Context, branchID *uuid.UUID) ([]model.BranchStock, error) {
	db := GetDB(ctx, r.db).Preload("Branch").Preload("Product")
	if branchID != nil {
		db = db.Where("branch_id = ?", *branchID)
	}

	var stock []model.BranchStock
	if err := db.Order("created_at asc").Find(&stock).Error; err != nil {
		return nil, err
	}
	return stock, nil
}

// FindStockForUpdate row-locks one stock record inside a transaction.
func (r *branchRepository) FindStockForUpdate(ctx context.Context, branchID, productID uuid.UUID) (*model.BranchStock, error) {
	var stock model.BranchStock
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *branchRepository) UpsertStock(ctx context.Context, stock *model.BranchStock) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(stock).Error
}
