package service

import (
	"context"
	"errors"
	"fmt"

	"shopadmin/internal/model"
	"shopadmin/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSKUTaken         = errors.New("sku already in use")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUnitNotFound     = errors.New("unit not found")
)

// --- DTOs ---

type ProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	ImageURL    string `json:"image_url"`
	CategoryID  string `json:"category_id"`
	UnitID      string `json:"unit_id"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type UnitRequest struct {
	Name  string `json:"name" binding:"required"`
	Short string `json:"short"`
}

// Option is a reference entity rendered into a select control.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FormOptions carries every reference collection the product form needs.
// The fetches run concurrently and the whole response fails if any of them
// fails, so the form never renders with a partially empty select.
type FormOptions struct {
	Categories []Option `json:"categories"`
	Units      []Option `json:"units"`
	Branches   []Option `json:"branches"`
}

// --- Interface ---

type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, actorID string, req ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actorID, id string) error
	ProductFormOptions(ctx context.Context) (*FormOptions, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListUnits(ctx context.Context) ([]model.Unit, error)
	CreateUnit(ctx context.Context, req UnitRequest) (*model.Unit, error)
	UpdateUnit(ctx context.Context, id string, req UnitRequest) (*model.Unit, error)
	DeleteUnit(ctx context.Context, id string) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	unitRepo     repository.UnitRepository
	branchRepo   repository.BranchRepository
	auditRepo    repository.AuditRepository
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	unitRepo repository.UnitRepository,
	branchRepo repository.BranchRepository,
	auditRepo repository.AuditRepository,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		unitRepo:     unitRepo,
		branchRepo:   branchRepo,
		auditRepo:    auditRepo,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.ListAll(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

func (s *catalogService) CreateProduct(ctx context.Context, actorID string, req ProductRequest) (*model.Product, error) {
	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, ErrSKUTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product, err := s.applyProductRequest(&model.Product{IsActive: true}, req)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionCreateProduct, product.ID.String(), product.Name, map[string]interface{}{
		"sku": product.SKU,
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actorID, id string, req ProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	existing, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if existing.SKU != req.SKU {
		if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
			return nil, ErrSKUTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	product, err := s.applyProductRequest(existing, req)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	recordAudit(ctx, s.auditRepo, actorID, model.ActionUpdateProduct, product.ID.String(), product.Name, map[string]interface{}{
		"sku": product.SKU,
	})
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, actorID, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ErrProductNotFound
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	recordAudit(ctx, s.auditRepo, actorID, model.ActionDeleteProduct, product.ID.String(), product.Name, nil)
	return nil
}

func (s *catalogService) ProductFormOptions(ctx context.Context) (*FormOptions, error) {
	var opts FormOptions

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.categoryRepo.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		opts.Categories = make([]Option, 0, len(categories))
		for _, c := range categories {
			opts.Categories = append(opts.Categories, Option{ID: c.ID.String(), Name: c.Name})
		}
		return nil
	})
	g.Go(func() error {
		units, err := s.unitRepo.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load units: %w", err)
		}
		opts.Units = make([]Option, 0, len(units))
		for _, u := range units {
			opts.Units = append(opts.Units, Option{ID: u.ID.String(), Name: u.Name})
		}
		return nil
	})
	g.Go(func() error {
		branches, err := s.branchRepo.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load branches: %w", err)
		}
		opts.Branches = make([]Option, 0, len(branches))
		for _, b := range branches {
			opts.Branches = append(opts.Branches, Option{ID: b.ID.String(), Name: b.Name})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (s *catalogService) applyProductRequest(product *model.Product, req ProductRequest) (*model.Product, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", req.Price)
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Description = req.Description
	product.Price = price
	product.ImageURL = req.ImageURL
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	product.CategoryID = nil
	product.Category = nil
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = &categoryID
	}

	product.UnitID = nil
	product.Unit = nil
	if req.UnitID != "" {
		unitID, err := uuid.Parse(req.UnitID)
		if err != nil {
			return nil, ErrUnitNotFound
		}
		product.UnitID = &unitID
	}
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.ListAll(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, req CategoryRequest) (*model.Category, error) {
	category := &model.Category{Name: req.Name, Slug: req.Slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*model.Category, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCategoryNotFound
	}
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.Slug = req.Slug
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return ErrCategoryNotFound
	}
	return s.categoryRepo.Delete(ctx, categoryID)
}

func (s *catalogService) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return s.unitRepo.ListAll(ctx)
}

func (s *catalogService) CreateUnit(ctx context.Context, req UnitRequest) (*model.Unit, error) {
	unit := &model.Unit{Name: req.Name, Short: req.Short}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	return unit, nil
}

func (s *catalogService) UpdateUnit(ctx context.Context, id string, req UnitRequest) (*model.Unit, error) {
	unitID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrUnitNotFound
	}
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, err
	}
	unit.Name = req.Name
	unit.Short = req.Short
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return unit, nil
}

func (s *catalogService) DeleteUnit(ctx context.Context, id string) error {
	unitID, err := uuid.Parse(id)
	if err != nil {
		return ErrUnitNotFound
	}
	return s.unitRepo.Delete(ctx, unitID)
}

