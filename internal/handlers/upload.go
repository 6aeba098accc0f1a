// internal/handlers/upload.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/storage"
	"github.com/javajoker/campus-market/internal/utils"
)

type UploadHandler struct {
	uploader *storage.Uploader
	maxSize  int64
}

func NewUploadHandler(uploader *storage.Uploader, maxSize int64) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		maxSize:  maxSize,
	}
}

// POST /uploads
//
// Stores a listing photo and returns its public URL, which can be sent as
// image_url when creating or editing a listing.
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	name, data, err := readUpload(c, h.maxSize)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	result, err := h.uploader.UploadPhoto(c.Request.Context(), name, data)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUploadSuccess),
		"upload":  result,
	})
}
