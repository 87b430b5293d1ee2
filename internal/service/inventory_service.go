package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopadmin/internal/metrics"
	"shopadmin/internal/model"
	"shopadmin/internal/repository"
	ws "shopadmin/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrImportNotFound   = errors.New("import not found")
	ErrImportNotPending = errors.New("import already reviewed")
	ErrNegativeStock    = errors.New("stock cannot go negative")
	ErrBranchNotFound   = errors.New("branch not found")
)

// --- DTOs ---

type AdjustStockRequest struct {
	BranchID  string `json:"branch_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Delta     int    `json:"delta" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

type ImportItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitCost  string `json:"unit_cost" binding:"required"`
}

type CreateImportRequest struct {
	BranchID     string              `json:"branch_id" binding:"required"`
	SupplierName string              `json:"supplier_name"`
	Note         string              `json:"note"`
	Items        []ImportItemRequest `json:"items" binding:"required,min=1,dive"`
}

type RejectImportRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListImportsQuery struct {
	Status string
	Page   int
	Limit  int
}

// --- Interface ---

type InventoryService interface {
	ListBranches(ctx context.Context) ([]model.Branch, error)
	ListStock(ctx context.Context, branchID string) ([]model.BranchStock, error)
	AdjustStock(ctx context.Context, actorID string, req AdjustStockRequest) (*model.BranchStock, error)

	ListImports(ctx context.Context, q ListImportsQuery) ([]model.InventoryImport, int64, error)
	GetImport(ctx context.Context, id string) (*model.InventoryImport, error)
	CreateImport(ctx context.Context, actorID string, req CreateImportRequest) (*model.InventoryImport, error)
	ApproveImport(ctx context.Context, actorID, id string) (*model.InventoryImport, error)
	RejectImport(ctx context.Context, actorID, id string, req RejectImportRequest) (*model.InventoryImport, error)
}

type inventoryService struct {
	branchRepo repository.BranchRepository
	importRepo repository.ImportRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewInventoryService(
	branchRepo repository.BranchRepository,
	importRepo repository.ImportRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		branchRepo: branchRepo,
		importRepo: importRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

func (s *inventoryService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return s.branchRepo.ListAll(ctx)
}

func (s *inventoryService) ListStock(ctx context.Context, branchID string) ([]model.BranchStock, error) {
	var filter *uuid.UUID
	if branchID != "" {
		id, err := uuid.Parse(branchID)
		if err != nil {
			return nil, ErrBranchNotFound
		}
		filter = &id
	}
	return s.branchRepo.ListStock(ctx, filter)
}

// AdjustStock applies a signed delta under a row lock so concurrent
// adjustments never lose updates or drive the quantity negative.
func (s *inventoryService) AdjustStock(ctx context.Context, actorID string, req AdjustStockRequest) (*model.BranchStock, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, ErrBranchNotFound
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var stock *model.BranchStock
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		stock, err = s.branchRepo.FindStockForUpdate(txCtx, branchID, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if req.Delta < 0 {
				return ErrNegativeStock
			}
			stock = &model.BranchStock{BranchID: branchID, ProductID: productID, Quantity: req.Delta}
			return s.branchRepo.UpsertStock(txCtx, stock)
		}
		if err != nil {
			return err
		}

		next := stock.Quantity + req.Delta
		if next < 0 {
			return ErrNegativeStock
		}
		stock.Quantity = next
		return s.branchRepo.UpsertStock(txCtx, stock)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionAdjustStock, stock.ID.String(), "", map[string]interface{}{
		"branch_id":  req.BranchID,
		"product_id": req.ProductID,
		"delta":      req.Delta,
		"quantity":   stock.Quantity,
		"reason":     req.Reason,
	})
	s.hub.Publish(ws.EventStockAdjusted, map[string]interface{}{
		"branch_id":  req.BranchID,
		"product_id": req.ProductID,
		"quantity":   stock.Quantity,
	})
	return stock, nil
}

func (s *inventoryService) ListImports(ctx context.Context, q ListImportsQuery) ([]model.InventoryImport, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	return s.importRepo.List(ctx, repository.ImportFilter{
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
}

func (s *inventoryService) GetImport(ctx context.Context, id string) (*model.InventoryImport, error) {
	importID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrImportNotFound
	}
	doc, err := s.importRepo.FindByIDWithItems(ctx, importID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImportNotFound
	}
	return doc, err
}

func (s *inventoryService) CreateImport(ctx context.Context, actorID string, req CreateImportRequest) (*model.InventoryImport, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, ErrBranchNotFound
	}
	if _, err := s.branchRepo.FindByID(ctx, branchID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBranchNotFound
	} else if err != nil {
		return nil, err
	}

	doc := &model.InventoryImport{
		Code:         generateImportCode(),
		BranchID:     branchID,
		SupplierName: req.SupplierName,
		Status:       model.ImportStatusPending,
		Note:         req.Note,
	}
	if creatorID, err := uuid.Parse(actorID); err == nil {
		doc.CreatedByID = &creatorID
	}

	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", item.ProductID)
		}
		unitCost, err := decimal.NewFromString(item.UnitCost)
		if err != nil || unitCost.IsNegative() {
			return nil, fmt.Errorf("invalid unit cost %q", item.UnitCost)
		}
		doc.Items = append(doc.Items, model.InventoryImportItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitCost:  unitCost,
		})
	}

	if err := s.importRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create import: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionCreateImport, doc.ID.String(), doc.Code, map[string]interface{}{
		"branch_id": req.BranchID,
		"items":     len(doc.Items),
	})
	return doc, nil
}

// ApproveImport moves every received quantity into branch stock and marks the
// document APPROVED, all inside one transaction. Progress events let the
// dashboard animate large receipts.
func (s *inventoryService) ApproveImport(ctx context.Context, actorID, id string) (*model.InventoryImport, error) {
	importID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrImportNotFound
	}

	var doc *model.InventoryImport
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.importRepo.FindByIDWithItems(txCtx, importID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImportNotFound
		}
		if err != nil {
			return err
		}
		if doc.Status != model.ImportStatusPending {
			return ErrImportNotPending
		}

		for i, item := range doc.Items {
			stock, err := s.branchRepo.FindStockForUpdate(txCtx, doc.BranchID, item.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				stock = &model.BranchStock{BranchID: doc.BranchID, ProductID: item.ProductID}
			} else if err != nil {
				return err
			}
			stock.Quantity += item.Quantity
			if err := s.branchRepo.UpsertStock(txCtx, stock); err != nil {
				return fmt.Errorf("failed to apply stock for product %s: %w", item.ProductID, err)
			}

			s.hub.Publish(ws.EventImportProgress, map[string]interface{}{
				"import_id": doc.ID.String(),
				"progress":  (i + 1) * 100 / len(doc.Items),
			})
		}

		now := time.Now()
		doc.Status = model.ImportStatusApproved
		doc.ReviewedAt = &now
		if reviewerID, err := uuid.Parse(actorID); err == nil {
			doc.ReviewedByID = &reviewerID
		}
		return s.importRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	metrics.ImportsReviewedTotal.WithLabelValues("approved").Inc()
	recordAudit(ctx, s.auditRepo, actorID, model.ActionApproveImport, doc.ID.String(), doc.Code, nil)
	return doc, nil
}

func (s *inventoryService) RejectImport(ctx context.Context, actorID, id string, req RejectImportRequest) (*model.InventoryImport, error) {
	importID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrImportNotFound
	}

	var doc *model.InventoryImport
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.importRepo.FindByIDWithItems(txCtx, importID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImportNotFound
		}
		if err != nil {
			return err
		}
		if doc.Status != model.ImportStatusPending {
			return ErrImportNotPending
		}

		now := time.Now()
		doc.Status = model.ImportStatusRejected
		doc.RejectReason = req.Reason
		doc.ReviewedAt = &now
		if reviewerID, err := uuid.Parse(actorID); err == nil {
			doc.ReviewedByID = &reviewerID
		}
		return s.importRepo.Update(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	metrics.ImportsReviewedTotal.WithLabelValues("rejected").Inc()
	recordAudit(ctx, s.auditRepo, actorID, model.ActionRejectImport, doc.ID.String(), doc.Code, map[string]interface{}{
		"reason": req.Reason,
	})
	return doc, nil
}

func generateImportCode() string {
	return fmt.Sprintf("IMP-%s-%s", time.Now().Format("20060102"), uuid.NewString()[:8])
}
