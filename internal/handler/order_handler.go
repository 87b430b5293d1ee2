package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/pagination"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	guard        *middleware.Guard
}

func NewOrderHandler(orderService service.OrderService, guard *middleware.Guard) *OrderHandler {
	return &OrderHandler{orderService: orderService, guard: guard}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("/manage", h.guard.RequirePermission("view-orders"), h.ListOrders)
		orders.GET("/:id", h.guard.RequirePermission("view-orders"), h.GetOrder)
		orders.POST("", h.guard.RequirePermission("manage-orders"), h.CreateOrder)
		orders.PATCH("/:id/status", h.guard.RequirePermission("manage-orders"), h.UpdateStatus)
	}
}

// ListOrders returns a server-paginated order listing
// @Summary      List orders
// @Description  Orders are a high-volume collection; filtering and paging run in the database
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        search  query     string  false  "Order code or customer name"
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=[]model.Order}
// @Router       /orders/manage [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), service.ListOrdersQuery{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list orders"))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(orders, pagination.Block(params, total)))
}

// GetOrder returns one order with its items
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Order not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load order"))
		return
	}
	c.JSON(http.StatusOK, response.Success(order))
}

// CreateOrder creates a sales order
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	order, err := h.orderService.CreateOrder(c.Request.Context(), identity.UserID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(order))
}

// UpdateStatus moves an order along its lifecycle
// @Summary      Update order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), identity.UserID, c.Param("id"), req)
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error("Order not found"))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update order status"))
	default:
		c.JSON(http.StatusOK, response.Success(order))
	}
}
