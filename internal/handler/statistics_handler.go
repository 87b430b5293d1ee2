package handler

import (
	"net/http"
	"strconv"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statsService service.StatisticsService
	guard        *middleware.Guard
}

func NewStatisticsHandler(statsService service.StatisticsService, guard *middleware.Guard) *StatisticsHandler {
	return &StatisticsHandler{statsService: statsService, guard: guard}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/statistics")
	stats.Use(h.guard.RequirePermission("view-statistics"))
	{
		stats.GET("/dashboard", h.Dashboard)
		stats.GET("/revenue", h.Revenue)
		stats.GET("/top-products", h.TopProducts)
	}
}

// Dashboard returns headline counts and recent best sellers
// @Summary      Dashboard statistics
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardResponse}
// @Router       /statistics/dashboard [get]
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	result, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load dashboard"))
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}

// Revenue returns the completed-order revenue series
// @Summary      Revenue series
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        group_by  query     string  false  "day, week, or month"
// @Param        start     query     string  false  "Start date YYYY-MM-DD"
// @Param        end       query     string  false  "End date YYYY-MM-DD"
// @Success      200       {object}  response.Response{data=[]repository.RevenuePoint}
// @Failure      400       {object}  response.Response
// @Router       /statistics/revenue [get]
func (h *StatisticsHandler) Revenue(c *gin.Context) {
	points, err := h.statsService.Revenue(c.Request.Context(), service.RevenueQuery{
		GroupBy: c.Query("group_by"),
		Start:   c.Query("start"),
		End:     c.Query("end"),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(points))
}

// TopProducts returns the best sellers for a period
// @Summary      Top products
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start  query     string  false  "Start date YYYY-MM-DD"
// @Param        end    query     string  false  "End date YYYY-MM-DD"
// @Param        limit  query     int     false  "Row limit"
// @Success      200    {object}  response.Response{data=[]repository.ProductRanking}
// @Failure      400    {object}  response.Response
// @Router       /statistics/top-products [get]
func (h *StatisticsHandler) TopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rankings, err := h.statsService.TopProducts(c.Request.Context(), c.Query("start"), c.Query("end"), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(rankings))
}
