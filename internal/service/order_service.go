package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	ws "shopadmin/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// validTransitions is the order lifecycle. Terminal states have no exits.
var validTransitions = map[string][]string{
	model.OrderStatusPending:   {model.OrderStatusConfirmed, model.OrderStatusCancelled},
	model.OrderStatusConfirmed: {model.OrderStatusShipping, model.OrderStatusCancelled},
	model.OrderStatusShipping:  {model.OrderStatusCompleted, model.OrderStatusCancelled},
}

// --- DTOs ---

type OrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	BranchID   string             `json:"branch_id"`
	Note       string             `json:"note"`
	Discount   string             `json:"discount"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED SHIPPING COMPLETED CANCELLED"`
}

type ListOrdersQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// --- Interface ---

type OrderService interface {
	ListOrders(ctx context.Context, q ListOrdersQuery) ([]model.Order, int64, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error)
	UpdateStatus(ctx context.Context, actorID, id string, req UpdateOrderStatusRequest) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *orderService) ListOrders(ctx context.Context, q ListOrdersQuery) ([]model.Order, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return s.orderRepo.List(ctx, repository.OrderFilter{
		Status: q.Status,
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *orderService) CreateOrder(ctx context.Context, actorID string, req CreateOrderRequest) (*model.Order, error) {
	order := &model.Order{
		Code:   generateOrderCode(),
		Status: model.OrderStatusPending,
		Note:   req.Note,
	}

	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id: %w", err)
		}
		order.CustomerID = &customerID
	}
	if req.BranchID != "" {
		branchID, err := uuid.Parse(req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("invalid branch id: %w", err)
		}
		order.BranchID = &branchID
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", item.ProductID)
		}
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil || unitPrice.IsNegative() {
			return nil, fmt.Errorf("invalid unit price %q", item.UnitPrice)
		}

		order.Items = append(order.Items, model.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if req.Discount != "" {
		var err error
		discount, err = decimal.NewFromString(req.Discount)
		if err != nil || discount.IsNegative() || discount.GreaterThan(subtotal) {
			return nil, fmt.Errorf("invalid discount %q", req.Discount)
		}
	}

	order.Subtotal = subtotal
	order.Discount = discount
	order.Total = subtotal.Sub(discount)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionCreateOrder, order.ID.String(), order.Code, map[string]interface{}{
		"total": order.Total.String(),
		"items": len(order.Items),
	})
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, actorID, id string, req UpdateOrderStatusRequest) (*model.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.orderRepo.FindByIDWithItems(txCtx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		if !transitionAllowed(order.Status, req.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, req.Status)
		}
		if err := s.orderRepo.UpdateStatus(txCtx, orderID, req.Status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order.Status = req.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionUpdateOrderStatus, order.ID.String(), order.Code, map[string]interface{}{
		"status": order.Status,
	})
	s.hub.Publish(ws.EventOrderStatus, map[string]interface{}{
		"order_id": order.ID.String(),
		"code":     order.Code,
		"status":   order.Status,
	})
	return order, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func generateOrderCode() string {
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), uuid.NewString()[:8])
}
