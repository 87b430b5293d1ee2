package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	guard       *middleware.Guard
}

func NewAuthHandler(authService service.AuthService, guard *middleware.Guard) *AuthHandler {
	return &AuthHandler{authService: authService, guard: guard}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.guard.RequireAuth(), h.Me)
	}
}

// Login authenticates an operator account
// @Summary      Log in
// @Description  Exchanges username/password for a token pair and sets auth cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, response.Error("Invalid username or password"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Login failed"))
		return
	}

	h.guard.SetTokenCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, response.Success(result))
}

// Refresh rotates the refresh token
// @Summary      Refresh session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response{data=service.LoginResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		c.JSON(http.StatusBadRequest, response.Error("Refresh token is missing"))
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), token)
	if errors.Is(err, service.ErrSessionExpired) {
		h.guard.ClearTokenCookies(c)
		c.JSON(http.StatusUnauthorized, response.Error("Session expired, please log in again"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to refresh session"))
		return
	}

	h.guard.SetTokenCookies(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, response.Success(result))
}

// Logout ends the session
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := h.refreshTokenFrom(c); token != "" {
		_ = h.authService.Logout(c.Request.Context(), token)
	}
	h.guard.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.SuccessMessage(nil, "Logged out"))
}

// Me returns the caller profile with resolved permissions
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ProfileResponse}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error("Authorization is missing"))
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to load profile"))
		return
	}
	c.JSON(http.StatusOK, response.Success(profile))
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to a
// JSON body for clients that keep tokens out of cookies.
func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie("refresh_token"); err == nil && token != "" {
		return token
	}
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}
