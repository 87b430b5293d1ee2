package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/listview"
	"shopadmin/internal/metrics"
	"shopadmin/internal/middleware"
	"shopadmin/internal/model"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

var customerListConfig = listview.Config[model.Customer]{
	SearchFields: func(cust model.Customer) []string {
		return []string{cust.Name, cust.Email, cust.Phone}
	},
	Columns: []listview.Column[model.Customer]{
		{Header: "Name", Value: func(cust model.Customer) string { return cust.Name }},
		{Header: "Email", Value: func(cust model.Customer) string { return cust.Email }},
		{Header: "Phone", Value: func(cust model.Customer) string { return cust.Phone }},
		{Header: "Address", Value: func(cust model.Customer) string { return cust.Address }},
	},
}

type CustomerHandler struct {
	customerService service.CustomerService
	guard           *middleware.Guard
}

func NewCustomerHandler(customerService service.CustomerService, guard *middleware.Guard) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, guard: guard}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/customers")
	{
		customers.GET("", h.guard.RequirePermission("view-customers"), h.ListCustomers)
		customers.GET("/export", h.guard.RequirePermission("view-customers"), h.ExportCustomers)
		customers.GET("/:id", h.guard.RequirePermission("view-customers"), h.GetCustomer)
		customers.POST("", h.guard.RequirePermission("create-customers"), h.CreateCustomer)
		customers.POST("/import", h.guard.RequirePermission("import-customers"), h.ImportCustomers)
		customers.PUT("/:id", h.guard.RequirePermission("edit-customers"), h.UpdateCustomer)
		customers.DELETE("/:id", h.guard.RequirePermission("delete-customers"), h.DeleteCustomer)
	}
}

// ListCustomers returns one page of the filtered customer list
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search term"
// @Param        page    query     int     false  "Page number"
// @Success      200     {object}  response.Response{data=[]model.Customer}
// @Router       /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list customers"))
		return
	}

	page := listview.Apply(customers, listQuery(c), customerListConfig)
	c.JSON(http.StatusOK, response.Paginated(page.Items, page.Pagination))
}

// ExportCustomers streams the filtered customer list as a spreadsheet
// @Summary      Export customers
// @Tags         customers
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        search  query  string  false  "Search term"
// @Success      200
// @Router       /customers/export [get]
func (h *CustomerHandler) ExportCustomers(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list customers"))
		return
	}

	filtered := listview.Filter(customers, c.Query("search"), customerListConfig.SearchFields)

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="customers.xlsx"`)
	if err := listview.Export(c.Writer, filtered, customerListConfig.Columns); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to export customers"))
		return
	}
	metrics.ExportsTotal.WithLabelValues("customers").Inc()
}

// ImportCustomers creates customers from an uploaded spreadsheet
// @Summary      Import customers
// @Tags         customers
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Spreadsheet file"
// @Success      200   {object}  response.Response{data=service.ImportResult}
// @Failure      400   {object}  response.Response
// @Router       /customers/import [post]
func (h *CustomerHandler) ImportCustomers(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Spreadsheet file is missing"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Failed to open uploaded file"))
		return
	}
	defer file.Close()

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	result, err := h.customerService.ImportFromSpreadsheet(c.Request.Context(), identity.UserID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Failed to read spreadsheet"))
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// GetCustomer returns one customer by id
// @Summary      Get customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Customer not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load customer"))
		return
	}
	c.JSON(http.StatusOK, response.Success(customer))
}

// CreateCustomer creates a customer record
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CustomerRequest  true  "Customer payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Router       /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), identity.UserID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to create customer"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(customer))
}

// UpdateCustomer updates a customer record
// @Summary      Update customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Customer ID"
// @Param        payload  body      service.CustomerRequest  true  "Customer payload"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Failure      404      {object}  response.Response
// @Router       /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), identity.UserID, c.Param("id"), req)
	if errors.Is(err, service.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Customer not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update customer"))
		return
	}
	c.JSON(http.StatusOK, response.Success(customer))
}

// DeleteCustomer soft-deletes a customer record
// @Summary      Delete customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	err := h.customerService.DeleteCustomer(c.Request.Context(), identity.UserID, c.Param("id"))
	if errors.Is(err, service.ErrCustomerNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Customer not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete customer"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Customer deleted"))
}
