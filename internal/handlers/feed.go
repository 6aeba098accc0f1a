// internal/handlers/feed.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/campus-market/internal/feed"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/utils"
)

type FeedHandler struct {
	feed *feed.Feed
}

func NewFeedHandler(f *feed.Feed) *FeedHandler {
	return &FeedHandler{feed: f}
}

// GET /feed
//
// Returns the latest full refetch. Before the first one the feed is read
// synchronously as the caller.
func (h *FeedHandler) GetFeed(c *gin.Context) {
	caller := utils.GetCallerFromContext(c)

	snap := h.feed.Snapshot()
	if snap == nil {
		var err error
		snap, err = h.feed.Refresh(c.Request.Context(), caller, "request")
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
	}

	utils.SuccessResponseWithMeta(c, services.NewListingViews(snap.Listings, caller), gin.H{
		"version":    snap.Version,
		"total":      snap.Total,
		"fetched_at": snap.FetchedAt,
	})
}
