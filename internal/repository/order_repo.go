package repository

import (
	"context"

	"shopadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows the server-side order listing. Zero values mean "no
// constraint"; orders are a high-volume collection and never fetched wholesale.
type OrderFilter struct {
	Status string
	Search string // matches order code or customer name
	Page   int
	Limit  int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		Preload("Branch").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.Status != "" {
		db = db.Where("orders.status = ?", filter.Status)
	}
	if filter.Search != "" {
		db = db.Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
			Where("orders.code ILIKE ? OR customers.name ILIKE ?",
				"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		Preload("Branch").
		Order("orders.created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
