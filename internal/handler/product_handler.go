package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shopadmin/internal/listview"
	"shopadmin/internal/metrics"
	"shopadmin/internal/middleware"
	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// productListConfig drives search, paging, and export for the catalog table.
var productListConfig = listview.Config[model.Product]{
	SearchFields: func(p model.Product) []string {
		fields := []string{p.Name, p.SKU}
		if p.Category != nil {
			fields = append(fields, p.Category.Name)
		}
		return fields
	},
	Columns: []listview.Column[model.Product]{
		{Header: "SKU", Value: func(p model.Product) string { return p.SKU }},
		{Header: "Name", Value: func(p model.Product) string { return p.Name }},
		{Header: "Price", Value: func(p model.Product) string { return p.Price.String() }},
		{Header: "Category", Value: func(p model.Product) string {
			if p.Category != nil {
				return p.Category.Name
			}
			return ""
		}},
		{Header: "Unit", Value: func(p model.Product) string {
			if p.Unit != nil {
				return p.Unit.Name
			}
			return ""
		}},
	},
}

type ProductHandler struct {
	catalogService service.CatalogService
	guard          *middleware.Guard
}

func NewProductHandler(catalogService service.CatalogService, guard *middleware.Guard) *ProductHandler {
	return &ProductHandler{catalogService: catalogService, guard: guard}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.guard.RequirePermission("view-products"), h.ListProducts)
		products.GET("/export", h.guard.RequirePermission("view-products"), h.ExportProducts)
		products.GET("/form-options", h.guard.RequireAny("create-products", "edit-products"), h.FormOptions)
		products.GET("/:id", h.guard.RequirePermission("view-products"), h.GetProduct)
		products.POST("", h.guard.RequirePermission("create-products"), h.CreateProduct)
		products.PUT("/:id", h.guard.RequirePermission("edit-products"), h.UpdateProduct)
		products.DELETE("/:id", h.guard.RequirePermission("delete-products"), h.DeleteProduct)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", h.guard.RequirePermission("view-categories"), h.ListCategories)
		categories.POST("", h.guard.RequirePermission("edit-categories"), h.CreateCategory)
		categories.PUT("/:id", h.guard.RequirePermission("edit-categories"), h.UpdateCategory)
		categories.DELETE("/:id", h.guard.RequirePermission("edit-categories"), h.DeleteCategory)
	}

	units := router.Group("/units")
	{
		units.GET("", h.guard.RequirePermission("view-units"), h.ListUnits)
		units.POST("", h.guard.RequirePermission("edit-units"), h.CreateUnit)
		units.PUT("/:id", h.guard.RequirePermission("edit-units"), h.UpdateUnit)
		units.DELETE("/:id", h.guard.RequirePermission("edit-units"), h.DeleteUnit)
	}
}

// listQuery reads the shared search/page parameters for table endpoints.
func listQuery(c *gin.Context) listview.Query {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	return listview.Query{
		Search: c.Query("search"),
		Page:   page,
	}
}

// ListProducts returns one page of the filtered catalog
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search term"
// @Param        page    query     int     false  "Page number"
// @Success      200     {object}  response.Response{data=[]model.Product}
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list products"))
		return
	}

	page := listview.Apply(products, listQuery(c), productListConfig)
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Pagination))
}

// ExportProducts streams the filtered catalog as a spreadsheet
// @Summary      Export products
// @Tags         products
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        search  query  string  false  "Search term"
// @Success      200
// @Router       /products/export [get]
func (h *ProductHandler) ExportProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list products"))
		return
	}

	filtered := listview.Filter(products, c.Query("search"), productListConfig.SearchFields)

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	if err := listview.Export(c.Writer, filtered, productListConfig.Columns); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to export products"))
		return
	}
	metrics.ExportsTotal.WithLabelValues("products").Inc()
}

// FormOptions returns the reference collections for the product form
// @Summary      Product form options
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.FormOptions}
// @Failure      500  {object}  response.Response
// @Router       /products/form-options [get]
func (h *ProductHandler) FormOptions(c *gin.Context) {
	opts, err := h.catalogService.ProductFormOptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load form options"))
		return
	}
	c.JSON(http.StatusOK, response.Success(opts))
}

// GetProduct returns one product by id
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Product not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load product"))
		return
	}
	c.JSON(http.StatusOK, response.Success(product))
}

// CreateProduct creates a catalog item
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProductRequest  true  "Product payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      409      {object}  response.Response
// @Router       /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), identity.UserID, req)
	if errors.Is(err, service.ErrSKUTaken) {
		c.JSON(http.StatusConflict, response.Error("SKU already in use"))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(product))
}

// UpdateProduct updates a catalog item
// @Summary      Update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      404      {object}  response.Response
// @Router       /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), identity.UserID, c.Param("id"), req)
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, response.Error("Product not found"))
	case errors.Is(err, service.ErrSKUTaken):
		c.JSON(http.StatusConflict, response.Error("SKU already in use"))
	case err != nil:
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	default:
		c.JSON(http.StatusOK, response.Success(product))
	}
}

// DeleteProduct soft-deletes a catalog item
// @Summary      Delete product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	err := h.catalogService.DeleteProduct(c.Request.Context(), identity.UserID, c.Param("id"))
	if errors.Is(err, service.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Product not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete product"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Product deleted"))
}

// ListCategories returns all categories
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /categories [get]
func (h *ProductHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list categories"))
		return
	}
	c.JSON(http.StatusOK, response.Success(categories))
}

// CreateCategory creates a category
// @Summary      Create category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category payload"
// @Success      201      {object}  response.Response{data=model.Category}
// @Router       /categories [post]
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to create category"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(category))
}

// UpdateCategory updates a category
// @Summary      Update category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category payload"
// @Success      200      {object}  response.Response{data=model.Category}
// @Failure      404      {object}  response.Response
// @Router       /categories/{id} [put]
func (h *ProductHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, service.ErrCategoryNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Category not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update category"))
		return
	}
	c.JSON(http.StatusOK, response.Success(category))
}

// DeleteCategory removes a category
// @Summary      Delete category
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Router       /categories/{id} [delete]
func (h *ProductHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete category"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Category deleted"))
}

// ListUnits returns all units
// @Summary      List units
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Unit}
// @Router       /units [get]
func (h *ProductHandler) ListUnits(c *gin.Context) {
	units, err := h.catalogService.ListUnits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list units"))
		return
	}
	c.JSON(http.StatusOK, response.Success(units))
}

// CreateUnit creates a unit
// @Summary      Create unit
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UnitRequest  true  "Unit payload"
// @Success      201      {object}  response.Response{data=model.Unit}
// @Router       /units [post]
func (h *ProductHandler) CreateUnit(c *gin.Context) {
	var req service.UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.catalogService.CreateUnit(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to create unit"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(unit))
}

// UpdateUnit updates a unit
// @Summary      Update unit
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Unit ID"
// @Param        payload  body      service.UnitRequest  true  "Unit payload"
// @Success      200      {object}  response.Response{data=model.Unit}
// @Failure      404      {object}  response.Response
// @Router       /units/{id} [put]
func (h *ProductHandler) UpdateUnit(c *gin.Context) {
	var req service.UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	unit, err := h.catalogService.UpdateUnit(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, service.ErrUnitNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Unit not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update unit"))
		return
	}
	c.JSON(http.StatusOK, response.Success(unit))
}

// DeleteUnit removes a unit
// @Summary      Delete unit
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Unit ID"
// @Success      200  {object}  response.Response
// @Router       /units/{id} [delete]
func (h *ProductHandler) DeleteUnit(c *gin.Context) {
	if err := h.catalogService.DeleteUnit(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete unit"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Unit deleted"))
}
