package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	guard       *middleware.Guard
}

func NewUserHandler(userService service.UserService, guard *middleware.Guard) *UserHandler {
	return &UserHandler{userService: userService, guard: guard}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/admin/users")
	users.Use(h.guard.RequirePermission("manage-users"))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers returns every operator account
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.UserResponse}
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to list users"))
		return
	}
	c.JSON(http.StatusOK, response.Success(users))
}

// GetUser returns one account by id
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, response.Error("User not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load user"))
		return
	}
	c.JSON(http.StatusOK, response.Success(user))
}

// CreateUser creates an operator account
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "User payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), identity.UserID, req)
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, response.Error("Username already in use"))
	case errors.Is(err, service.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, response.Error("Unknown role"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to create user"))
	default:
		c.JSON(http.StatusCreated, response.Success(user))
	}
}

// UpdateUser updates an operator account
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "User payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), identity.UserID, c.Param("id"), req)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, response.Error("User not found"))
	case errors.Is(err, service.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, response.Error("Unknown role"))
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.Error("Failed to update user"))
	default:
		c.JSON(http.StatusOK, response.Success(user))
	}
}

// DeleteUser removes an operator account
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}
	err := h.userService.DeleteUser(c.Request.Context(), identity.UserID, c.Param("id"))
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, response.Error("User not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to delete user"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "User deleted"))
}
