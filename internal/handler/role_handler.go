package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	guard       *middleware.Guard
}

func NewRoleHandler(roleService service.RoleService, guard *middleware.Guard) *RoleHandler {
	return &RoleHandler{roleService: roleService, guard: guard}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/admin/roles")
	roles.Use(h.guard.RequirePermission("manage-roles"))
	{
		roles.GET("", h.ListRoles)
		roles.GET("/:id", h.GetRole)
		roles.POST("", h.CreateRole)
		roles.PUT("/:id", h.UpdateRole)
		roles.DELETE("/:id", h.DeleteRole)
		roles.PUT("/:id/permissions", h.UpdateRolePermissions)
	}

	// Path used by the dashboard's role editor.
	router.PUT("/roles/:id/permissions", h.guard.RequirePermission("manage-roles"), h.UpdateRolePermissions)

	perms := router.Group("/admin/permissions")
	perms.Use(h.guard.RequirePermission("manage-roles"))
	{
		perms.GET("", h.ListPermissions)
	}
}

// ListRoles returns all roles with their permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /admin/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list roles"))
		return
	}
	c.JSON(http.StatusOK, response.Success(roles))
}

// GetRole returns one role by id
// @Summary      Get role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrRoleNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Role not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load role"))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}

// CreateRole creates a custom role
// @Summary      Create role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Role payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      409      {object}  response.Response
// @Router       /admin/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if errors.Is(err, service.ErrSlugTaken) {
		c.JSON(http.StatusConflict, response.Error("Role slug already in use"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to create role"))
		return
	}
	c.JSON(http.StatusCreated, response.Success(role))
}

// UpdateRole updates a role's name and description
// @Summary      Update role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Role payload"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Router       /admin/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, service.ErrRoleNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Role not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update role"))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}

// DeleteRole removes a non-system role
// @Summary      Delete role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /admin/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	err := h.roleService.DeleteRole(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		c.JSON(http.StatusNotFound, response.Error("Role not found"))
	case errors.Is(err, service.ErrSystemRole):
		c.JSON(http.StatusBadRequest, response.Error("System roles cannot be deleted"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete role"))
	default:
		c.JSON(http.StatusOK, response.SuccessMessage(nil, "Role deleted"))
	}
}

// ListPermissions returns the full permission catalog grouped for the editor
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /admin/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list permissions"))
		return
	}
	c.JSON(http.StatusOK, response.Success(perms))
}

// UpdateRolePermissions replaces a role's permission set
// @Summary      Update role permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Router       /admin/roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), identity.UserID, c.Param("id"), req)
	if errors.Is(err, service.ErrRoleNotFound) {
		c.JSON(http.StatusNotFound, response.Error("Role not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update permissions"))
		return
	}
	c.JSON(http.StatusOK, response.Success(role))
}
