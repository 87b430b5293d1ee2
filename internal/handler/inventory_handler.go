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
	"shopadmin/pkg/pagination"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

var stockListConfig = listview.Config[model.BranchStock]{
	SearchFields: func(s model.BranchStock) []string {
		return []string{s.Product.Name, s.Product.SKU, s.Branch.Name, s.Branch.Code}
	},
	Columns: []listview.Column[model.BranchStock]{
		{Header: "Branch", Value: func(s model.BranchStock) string { return s.Branch.Name }},
		{Header: "Product", Value: func(s model.BranchStock) string { return s.Product.Name }},
		{Header: "SKU", Value: func(s model.BranchStock) string { return s.Product.SKU }},
		{Header: "Quantity", Value: func(s model.BranchStock) string { return strconv.Itoa(s.Quantity) }},
	},
}

type InventoryHandler struct {
	inventoryService service.InventoryService
	guard            *middleware.Guard
}

func NewInventoryHandler(inventoryService service.InventoryService, guard *middleware.Guard) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, guard: guard}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	branches := router.Group("/branches")
	{
		branches.GET("", h.guard.RequirePermission("view-inventory"), h.ListBranches)
	}

	inventory := router.Group("/inventory")
	{
		inventory.GET("/stock", h.guard.RequirePermission("view-inventory"), h.ListStock)
		inventory.GET("/stock/export", h.guard.RequirePermission("view-inventory"), h.ExportStock)
		inventory.POST("/stock/adjust", h.guard.RequirePermission("adjust-stock"), h.AdjustStock)

		imports := inventory.Group("/imports")
		{
			imports.GET("", h.guard.RequirePermission("view-inventory"), h.ListImports)
			imports.GET("/:id", h.guard.RequirePermission("view-inventory"), h.GetImport)
			imports.POST("", h.guard.RequirePermission("create-imports"), h.CreateImport)
			imports.POST("/:id/approve", h.guard.RequirePermission("review-imports"), h.ApproveImport)
			imports.POST("/:id/reject", h.guard.RequirePermission("review-imports"), h.RejectImport)
		}
	}
}

// ListBranches returns every store location
// @Summary      List branches
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Router       /branches [get]
func (h *InventoryHandler) ListBranches(c *gin.Context) {
	branches, err := h.inventoryService.ListBranches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list branches"))
		return
	}
	c.JSON(http.StatusOK, response.Success(branches))
}

// ListStock returns one page of the filtered stock table, optionally for one branch
// @Summary      List branch stock
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id  query     string  false  "Branch filter"
// @Param        search     query     string  false  "Search term"
// @Param        page       query     int     false  "Page number"
// @Success      200        {object}  response.Response{data=[]model.BranchStock}
// @Router       /inventory/stock [get]
func (h *InventoryHandler) ListStock(c *gin.Context) {
	stock, err := h.inventoryService.ListStock(c.Request.Context(), c.Query("branch_id"))
	if errors.Is(err, service.ErrBranchNotFound) {
		c.JSON(http.StatusBadRequest, response.Error("Invalid branch id"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list stock"))
		return
	}

	page := listview.Apply(stock, listQuery(c), stockListConfig)
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Pagination))
}

// ExportStock streams the filtered stock table as a spreadsheet
// @Summary      Export branch stock
// @Tags         inventory
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        branch_id  query  string  false  "Branch filter"
// @Param        search     query  string  false  "Search term"
// @Success      200
// @Router       /inventory/stock/export [get]
func (h *InventoryHandler) ExportStock(c *gin.Context) {
	stock, err := h.inventoryService.ListStock(c.Request.Context(), c.Query("branch_id"))
	if errors.Is(err, service.ErrBranchNotFound) {
		c.JSON(http.StatusBadRequest, response.Error("Invalid branch id"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list stock"))
		return
	}

	filtered := listview.Filter(stock, c.Query("search"), stockListConfig.SearchFields)

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="stock.xlsx"`)
	if err := listview.Export(c.Writer, filtered, stockListConfig.Columns); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to export stock"))
		return
	}
	metrics.ExportsTotal.WithLabelValues("stock").Inc()
}

// AdjustStock applies a manual stock correction
// @Summary      Adjust stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment payload"
// @Success      200      {object}  response.Response{data=model.BranchStock}
// @Failure      400      {object}  response.Response
// @Router       /inventory/stock/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	stock, err := h.inventoryService.AdjustStock(c.Request.Context(), identity.UserID, req)
	switch {
	case errors.Is(err, service.ErrNegativeStock):
		c.JSON(http.StatusBadRequest, response.Error("Stock cannot go negative"))
	case errors.Is(err, service.ErrBranchNotFound), errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusBadRequest, response.Error("Invalid branch or product id"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to adjust stock"))
	default:
		c.JSON(http.StatusOK, response.Success(stock))
	}
}

// ListImports returns a server-paginated goods-receipt listing
// @Summary      List imports
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]model.InventoryImport}
// @Router       /inventory/imports [get]
func (h *InventoryHandler) ListImports(c *gin.Context) {
	params := pagination.Parse(c)
	docs, total, err := h.inventoryService.ListImports(c.Request.Context(), service.ListImportsQuery{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list imports"))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(docs, pagination.Block(params, total)))
}

// GetImport returns one goods receipt with its lines
// @Summary      Get import
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Import ID"
// @Success      200  {object}  response.Response{data=model.InventoryImport}
// @Failure      404  {object}  response.Response
// @Router       /inventory/imports/{id} [get]
func (h *InventoryHandler) GetImport(c *gin.Context) {
	doc, err := h.inventoryService.GetImport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrImportNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Import not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load import"))
		return
	}
	c.JSON(http.StatusOK, response.Success(doc))
}

// CreateImport records a pending goods receipt
// @Summary      Create import
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateImportRequest  true  "Import payload"
// @Success      201      {object}  response.Response{data=model.InventoryImport}
// @Failure      400      {object}  response.Response
// @Router       /inventory/imports [post]
func (h *InventoryHandler) CreateImport(c *gin.Context) {
	var req service.CreateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	doc, err := h.inventoryService.CreateImport(c.Request.Context(), identity.UserID, req)
	if errors.Is(err, service.ErrBranchNotFound) {
		c.JSON(http.StatusBadRequest, response.Error("Branch not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(doc))
}

// ApproveImport applies a pending receipt to branch stock
// @Summary      Approve import
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Import ID"
// @Success      200  {object}  response.Response{data=model.InventoryImport}
// @Failure      409  {object}  response.Response
// @Router       /inventory/imports/{id}/approve [post]
func (h *InventoryHandler) ApproveImport(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	doc, err := h.inventoryService.ApproveImport(c.Request.Context(), identity.UserID, c.Param("id"))
	switch {
	case errors.Is(err, service.ErrImportNotFound):
		c.JSON(http.StatusNotFound, response.Error("Import not found"))
	case errors.Is(err, service.ErrImportNotPending):
		c.JSON(http.StatusConflict, response.Error("Import already reviewed"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to approve import"))
	default:
		c.JSON(http.StatusOK, response.Success(doc))
	}
}

// RejectImport declines a pending receipt without touching stock
// @Summary      Reject import
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Import ID"
// @Param        payload  body      service.RejectImportRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response{data=model.InventoryImport}
// @Failure      409      {object}  response.Response
// @Router       /inventory/imports/{id}/reject [post]
func (h *InventoryHandler) RejectImport(c *gin.Context) {
	var req service.RejectImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	doc, err := h.inventoryService.RejectImport(c.Request.Context(), identity.UserID, c.Param("id"), req)
	switch {
	case errors.Is(err, service.ErrImportNotFound):
		c.JSON(http.StatusNotFound, response.Error("Import not found"))
	case errors.Is(err, service.ErrImportNotPending):
		c.JSON(http.StatusConflict, response.Error("Import already reviewed"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to reject import"))
	default:
		c.JSON(http.StatusOK, response.Success(doc))
	}
}
