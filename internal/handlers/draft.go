// internal/handlers/draft.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/form"
	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/utils"
)

type DraftHandler struct {
	draftService *services.DraftService
	maxSize      int64
}

func NewDraftHandler(draftService *services.DraftService, maxSize int64) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		maxSize:      maxSize,
	}
}

type openDraftRequest struct {
	ListingID *uuid.UUID `json:"listing_id"`
}

// POST /drafts
func (h *DraftHandler) OpenDraft(c *gin.Context) {
	var req openDraftRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	draft, err := h.draftService.Open(c.Request.Context(), utils.GetCallerFromContext(c), req.ListingID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.CreatedResponse(c, draft)
}

// GET /drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.Get(utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// PATCH /drafts/:id
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch form.Patch
	if !bindJSON(c, &patch) {
		return
	}

	draft, err := h.draftService.Apply(utils.GetCallerFromContext(c), id, patch)
	if err != nil {
		h.abort(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// POST /drafts/:id/next
func (h *DraftHandler) NextStep(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.Next(utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// POST /drafts/:id/back
func (h *DraftHandler) PreviousStep(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.Back(utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// POST /drafts/:id/image
func (h *DraftHandler) AttachImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	name, data, err := readUpload(c, h.maxSize)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	draft, err := h.draftService.AttachImage(utils.GetCallerFromContext(c), id, name, data)
	if err != nil {
		h.abort(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// POST /drafts/:id/submit
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, edited, err := h.draftService.Submit(c.Request.Context(), utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err)
		return
	}

	if edited {
		utils.SuccessResponse(c, gin.H{
			"message": i18n.T(lang, i18n.KeyListingUpdated),
			"listing": listing,
		})
		return
	}
	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCreated),
		"listing": listing,
	})
}

// DELETE /drafts/:id
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.draftService.Discard(utils.GetCallerFromContext(c), id); err != nil {
		h.abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DraftHandler) abort(c *gin.Context, err error) {
	if apperr.Is(err, apperr.KindNotFound) {
		lang := utils.GetLangFromContext(c)
		err = apperr.Wrap(apperr.KindNotFound, i18n.T(lang, i18n.KeyDraftNotFound), err)
	}
	utils.AbortWithError(c, err)
}
