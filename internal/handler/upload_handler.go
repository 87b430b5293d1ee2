package handler

import (
	"errors"
	"net/http"

	"shopadmin/internal/middleware"
	"shopadmin/internal/service"
	"shopadmin/pkg/response"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService service.UploadService
	guard         *middleware.Guard
}

func NewUploadHandler(uploadService service.UploadService, guard *middleware.Guard) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, guard: guard}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup) {
	uploads := router.Group("/uploads")
	uploads.Use(h.guard.RequirePermission("upload-files"))
	{
		uploads.POST("/signature", h.Signature)
	}
}

// Signature signs a direct-to-host upload request
// @Summary      Upload signature
// @Description  Returns a signed parameter set so the browser can upload images directly to the image host
// @Tags         uploads
// @Produce      json
// @Security     BearerAuth
// @Param        folder  query     string  false  "Target folder"
// @Success      200     {object}  response.Response{data=service.SignatureResponse}
// @Failure      503     {object}  response.Response
// @Router       /uploads/signature [post]
func (h *UploadHandler) Signature(c *gin.Context) {
	sig, err := h.uploadService.Signature(c.Query("folder"))
	if errors.Is(err, service.ErrUploadsNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, response.Error("Uploads are not configured"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to sign upload"))
		return
	}
	c.JSON(http.StatusOK, response.Success(sig))
}
