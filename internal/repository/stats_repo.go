package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RevenuePoint is one aggregated bucket of the revenue series.
type RevenuePoint struct {
	Period     string `gorm:"column:period" json:"period"`
	Revenue    string `gorm:"column:revenue" json:"revenue"`
	OrderCount int    `gorm:"column:order_count" json:"order_count"`
}

// ProductRanking is one row of the best-seller report.
type ProductRanking struct {
	ProductID     string `gorm:"column:product_id" json:"product_id"`
	ProductName   string `gorm:"column:product_name" json:"product_name"`
	ProductSKU    string `gorm:"column:product_sku" json:"product_sku"`
	TotalQuantity int    `gorm:"column:total_quantity" json:"total_quantity"`
	TotalValue    string `gorm:"column:total_value" json:"total_value"`
}

// EntityCounts are the dashboard headline numbers.
type EntityCounts struct {
	Products  int64 `json:"products"`
	Customers int64 `json:"customers"`
	Orders    int64 `json:"orders"`
	Pending   int64 `json:"pending_orders"`
}

type StatisticsRepository interface {
	RevenueSeries(ctx context.Context, groupBy string, start, end time.Time) ([]RevenuePoint, error)
	TopProducts(ctx context.Context, start, end time.Time, limit int) ([]ProductRanking, error)
	Counts(ctx context.Context) (*EntityCounts, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) RevenueSeries(ctx context.Context, groupBy string, start, end time.Time) ([]RevenuePoint, error) {
	// groupBy is validated by the service into day/week/month before it
	// reaches the DATE_TRUNC parameter.
	query := `
		SELECT
			TO_CHAR(DATE_TRUNC($1, o.created_at), 'YYYY-MM-DD') AS period,
			COALESCE(CAST(SUM(o.total) AS TEXT), '0') AS revenue,
			COUNT(o.id) AS order_count
		FROM orders o
		WHERE o.status = 'COMPLETED'
		  AND o.created_at >= $2
		  AND o.created_at <= $3
		GROUP BY DATE_TRUNC($1, o.created_at)
		ORDER BY period
	`

	var points []RevenuePoint
	if err := GetDB(ctx, r.db).Raw(query, groupBy, start, end).Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue series: %w", err)
	}
	return points, nil
}

func (r *statisticsRepository) TopProducts(ctx context.Context, start, end time.Time, limit int) ([]ProductRanking, error) {
	var rankings []ProductRanking
	if err := GetDB(ctx, r.db).Table("order_items").
		Select("products.id as product_id, products.name as product_name, products.sku as product_sku, SUM(order_items.quantity) as total_quantity, CAST(SUM(order_items.quantity * order_items.unit_price) AS TEXT) as total_value").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ? AND orders.created_at >= ? AND orders.created_at <= ?",
			"COMPLETED", start, end).
		Group("products.id, products.name, products.sku").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}

func (r *statisticsRepository) Counts(ctx context.Context) (*EntityCounts, error) {
	db := GetDB(ctx, r.db)
	var counts EntityCounts

	if err := db.Table("products").Where("deleted_at IS NULL").Count(&counts.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Table("customers").Where("deleted_at IS NULL").Count(&counts.Customers).Error; err != nil {
		return nil, err
	}
	if err := db.Table("orders").Count(&counts.Orders).Error; err != nil {
		return nil, err
	}
	if err := db.Table("orders").Where("status = ?", "PENDING").Count(&counts.Pending).Error; err != nil {
		return nil, err
	}

	return &counts, nil
}
