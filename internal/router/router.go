// internal/router/router.go
package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/campus-market/internal/contact"
	"github.com/javajoker/campus-market/internal/handlers"
	"github.com/javajoker/campus-market/internal/middleware"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/storage"
	"github.com/javajoker/campus-market/internal/utils"
)

func Initialize(deps *Dependencies) *gin.Engine {
	cfg := deps.Config

	// Initialize services
	uploader := storage.NewUploader(deps.Store, cfg.Storage.MaxUploadSize)
	links := contact.NewLinkBuilder(cfg.Marketplace.CurrencySymbol)

	authService := services.NewAuthService(deps.Users, deps.Sessions, cfg)
	listingService := services.NewListingService(deps.Listings, uploader, links, cfg.Marketplace.DefaultCountryCode)
	draftService := services.NewDraftService(deps.Listings, uploader, cfg.Marketplace.DefaultCountryCode,
		time.Duration(cfg.Marketplace.DraftTTLMinutes)*time.Minute)
	preferenceService := services.NewPreferenceService(deps.Preferences)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(listingService, deps.Changes)
	draftHandler := handlers.NewDraftHandler(draftService, cfg.Storage.MaxUploadSize)
	uploadHandler := handlers.NewUploadHandler(uploader, cfg.Storage.MaxUploadSize)
	feedHandler := handlers.NewFeedHandler(deps.Feed)
	preferenceHandler := handlers.NewPreferenceHandler(preferenceService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.GeneralRateLimit().Middleware())

	authRequired := middleware.AuthRequired(deps.Sessions)
	uploadLimit := middleware.UploadRateLimit().Middleware()

	r.GET("/health", handlers.Health)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		v1.GET("/categories", handlers.Categories)

		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit().Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		// Listing routes
		listings := v1.Group("/listings")
		listings.Use(authRequired)
		{
			listings.GET("", listingHandler.GetListings)
			listings.POST("", listingHandler.CreateListing)
			listings.GET("/changes", listingHandler.StreamChanges)
			listings.GET("/:id", listingHandler.GetListing)
			listings.PUT("/:id", listingHandler.UpdateListing)
			listings.DELETE("/:id", listingHandler.DeleteListing)
			listings.GET("/:id/contact", listingHandler.ContactSeller)
			listings.GET("/:id/placeholder.png", listingHandler.GetPlaceholder)
		}

		// Listing wizard routes
		drafts := v1.Group("/drafts")
		drafts.Use(authRequired)
		{
			drafts.POST("", draftHandler.OpenDraft)
			drafts.GET("/:id", draftHandler.GetDraft)
			drafts.PATCH("/:id", draftHandler.UpdateDraft)
			drafts.DELETE("/:id", draftHandler.DiscardDraft)
			drafts.POST("/:id/next", draftHandler.NextStep)
			drafts.POST("/:id/back", draftHandler.PreviousStep)
			drafts.POST("/:id/image", uploadLimit, draftHandler.AttachImage)
			drafts.POST("/:id/submit", draftHandler.SubmitDraft)
		}

		protected := v1.Group("")
		protected.Use(authRequired)
		{
			protected.POST("/uploads", uploadLimit, uploadHandler.UploadPhoto)
			protected.GET("/feed", feedHandler.GetFeed)
			protected.GET("/preferences/theme", preferenceHandler.GetTheme)
			protected.PUT("/preferences/theme", preferenceHandler.SetTheme)
		}
	}

	// Static file serving for the local storage driver
	if local, ok := deps.Store.(*storage.LocalStore); ok {
		r.Static(storage.LocalURLPrefix, local.Dir())
	}

	return r
}
