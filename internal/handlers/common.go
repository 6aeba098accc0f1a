// internal/handlers/common.go
package handlers

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/utils"
)

// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"languages": i18n.GetSupportedLanguages(),
	})
}

// GET /v1/categories
func Categories(c *gin.Context) {
	utils.SuccessResponse(c, models.Categories)
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the request body into req.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// readUpload reads the multipart "file" field, refusing anything larger
// than maxSize.
func readUpload(c *gin.Context, maxSize int64) (string, []byte, error) {
	lang := utils.GetLangFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, apperr.Validation(i18n.T(lang, i18n.KeyUploadMissing), nil)
	}
	if maxSize > 0 && header.Size > maxSize {
		return "", nil, apperr.Validation("file is too large", map[string]int64{"max_size": maxSize})
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, apperr.Upload(i18n.T(lang, i18n.KeyUploadFailed), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return "", nil, apperr.Upload(i18n.T(lang, i18n.KeyUploadFailed), err)
	}
	return header.Filename, buf.Bytes(), nil
}
