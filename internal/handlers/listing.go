// internal/handlers/listing.go
package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/i18n"
	"github.com/javajoker/campus-market/internal/placeholder"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/repository"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/utils"
)

const (
	placeholderSize   = 400
	maxPlaceholderDim = 1200
	sseKeepAlive      = 25 * time.Second
)

type ListingHandler struct {
	listingService *services.ListingService
	changes        realtime.Notifier
}

func NewListingHandler(listingService *services.ListingService, changes realtime.Notifier) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		changes:        changes,
	}
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	filter := repository.ListingFilter{PaginationParams: utils.GetPaginationParams(c)}

	if ownerIDStr := c.Query("owner_id"); ownerIDStr != "" {
		if ownerIDStr == "me" {
			if userID, ok := utils.GetUserIDFromContext(c); ok {
				filter.OwnerID = &userID
			}
		} else if ownerID, err := uuid.Parse(ownerIDStr); err == nil {
			filter.OwnerID = &ownerID
		}
	}

	result, err := h.listingService.List(c.Request.Context(), utils.GetCallerFromContext(c), filter)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	utils.PaginatedResponse(c, result)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.listingService.Get(c.Request.Context(), utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err, "")
		return
	}

	utils.SuccessResponse(c, listing)
}

// POST /listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), utils.GetCallerFromContext(c), &req)
	if err != nil {
		h.abort(c, err, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingCreated),
		"listing": listing,
	})
}

// PUT /listings/:id
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingService.Edit(c.Request.Context(), utils.GetCallerFromContext(c), id, &req)
	if err != nil {
		h.abort(c, err, i18n.KeyListingNotOwner)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyListingUpdated),
		"listing": listing,
	})
}

// DELETE /listings/:id
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), utils.GetCallerFromContext(c), id); err != nil {
		h.abort(c, err, i18n.KeyListingNoDelete)
		return
	}

	c.Status(http.StatusNoContent)
}

// GET /listings/:id/contact
func (h *ListingHandler) ContactSeller(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	link, err := h.listingService.ContactLink(c.Request.Context(), utils.GetCallerFromContext(c), id)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			lang := utils.GetLangFromContext(c)
			err = apperr.Wrap(apperr.KindValidation, i18n.T(lang, i18n.KeyListingNoContact), err)
		}
		h.abort(c, err, "")
		return
	}

	if c.Query("redirect") == "false" {
		utils.SuccessResponse(c, gin.H{"url": link})
		return
	}
	c.Redirect(http.StatusFound, link)
}

// GET /listings/:id/placeholder.png
func (h *ListingHandler) GetPlaceholder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	gradient, err := h.listingService.Placeholder(c.Request.Context(), utils.GetCallerFromContext(c), id)
	if err != nil {
		h.abort(c, err, "")
		return
	}

	width := sizeQuery(c, "w")
	height := sizeQuery(c, "h")

	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if err := placeholder.Render(c.Writer, gradient, width, height); err != nil {
		_ = c.Error(err)
	}
}

func sizeQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return placeholderSize
	}
	return min(n, maxPlaceholderDim)
}

// GET /listings/changes
//
// Server-Sent Events: one "change" event per notification. The payload is
// informational; clients refetch.
func (h *ListingHandler) StreamChanges(c *gin.Context) {
	sub := h.changes.Subscribe()
	defer sub.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"table": "listings"})
	c.Writer.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}

// abort localizes the not-found and, when authKey is set, the
// authorization responses.
func (h *ListingHandler) abort(c *gin.Context, err error, authKey string) {
	lang := utils.GetLangFromContext(c)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		utils.NotFoundResponse(c, "listing")
		c.Abort()
		return
	case authKey != "" && apperr.Is(err, apperr.KindAuthorization):
		err = apperr.Wrap(apperr.KindAuthorization, i18n.T(lang, authKey), err)
	}
	utils.AbortWithError(c, err)
}
