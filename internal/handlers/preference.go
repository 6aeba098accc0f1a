// internal/handlers/preference.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/utils"
)

type PreferenceHandler struct {
	preferenceService *services.PreferenceService
}

func NewPreferenceHandler(preferenceService *services.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

// GET /preferences/theme
func (h *PreferenceHandler) GetTheme(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	theme, err := h.preferenceService.Theme(c.Request.Context(), userID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"theme": theme})
}

// PUT /preferences/theme
func (h *PreferenceHandler) SetTheme(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ThemeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.preferenceService.SetTheme(c.Request.Context(), userID, models.Theme(req.Theme)); err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPreferenceSaved),
		"theme":   req.Theme,
	})
}
