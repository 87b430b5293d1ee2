package handler

import (
	"net/http"

	"shopadmin/internal/listview"
	"shopadmin/internal/metrics"
	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/pagination"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

var auditListConfig = listview.Config[service.AuditLogResponse]{
	SearchFields: func(l service.AuditLogResponse) []string {
		return []string{l.Username, l.Action, l.EntityName}
	},
	Columns: []listview.Column[service.AuditLogResponse]{
		{Header: "Time", Value: func(l service.AuditLogResponse) string { return l.CreatedAt }},
		{Header: "User", Value: func(l service.AuditLogResponse) string { return l.Username }},
		{Header: "Action", Value: func(l service.AuditLogResponse) string { return l.Action }},
		{Header: "Entity", Value: func(l service.AuditLogResponse) string { return l.EntityName }},
		{Header: "Details", Value: func(l service.AuditLogResponse) string { return l.Details }},
	},
}

type AuditHandler struct {
	auditService service.AuditService
	guard        *middleware.Guard
}

func NewAuditHandler(auditService service.AuditService, guard *middleware.Guard) *AuditHandler {
	return &AuditHandler{auditService: auditService, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/logs")
	logs.Use(h.guard.RequirePermission("view-logs"))
	{
		logs.GET("", h.ListLogs)
		logs.GET("/export", h.ExportLogs)
	}
}

// ListLogs returns the audit trail, newest first
// @Summary      List audit logs
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /logs [get]
func (h *AuditHandler) ListLogs(c *gin.Context) {
	params := pagination.Parse(c)
	logs, total, err := h.auditService.ListLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list logs"))
		return
	}
	c.JSON(http.StatusOK, response.Paginated(logs, pagination.Block(params, total)))
}

// ExportLogs streams the filtered audit trail as a spreadsheet
// @Summary      Export audit logs
// @Tags         logs
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        search  query  string  false  "Search term"
// @Success      200
// @Router       /logs/export [get]
func (h *AuditHandler) ExportLogs(c *gin.Context) {
	logs, err := h.auditService.AllLogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list logs"))
		return
	}

	filtered := listview.Filter(logs, c.Query("search"), auditListConfig.SearchFields)

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="audit-logs.xlsx"`)
	if err := listview.Export(c.Writer, filtered, auditListConfig.Columns); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to export logs"))
		return
	}
	metrics.ExportsTotal.WithLabelValues("logs").Inc()
}
