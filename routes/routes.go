package routes

import (
	"menu-builder-api/handlers"
	"menu-builder-api/logger"
	"menu-builder-api/middleware"
	"menu-builder-api/models"
	"menu-builder-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, log *logger.Logger) {
	quota := services.NewQuotaGuard(db, log)
	ledger := services.NewLedger(db, log)
	publisher := services.NewPublisher(db, quota, ledger, log)
	tracker := services.NewViewTracker(db, quota, log)

	restaurantHandler := handlers.NewRestaurantHandler(db, publisher, quota, ledger, log)
	publicHandler := handlers.NewPublicHandler(db, tracker, log)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Published menus & view tracking (no auth needed)
		public.GET("/menus/:slug", publicHandler.GetMenu)
		public.POST("/track/menu/:slug", publicHandler.TrackMenuView)
		public.POST("/track/items/:itemId", publicHandler.TrackItemView)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
	}

	// ── Owner routes ───────────────────────────────────────────────
	owner := r.Group("/api/restaurant")
	owner.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleOwner, models.RoleAdmin))
	{
		owner.POST("/publish", restaurantHandler.PublishMenu)
		owner.PUT("/:id", restaurantHandler.UpdateRestaurant)
		owner.DELETE("/:id", restaurantHandler.ArchiveRestaurant)
		owner.PUT("/items/:itemId/availability", restaurantHandler.SetItemAvailability)

		owner.GET("/quota", restaurantHandler.GetQuota)
		owner.GET("/activity", restaurantHandler.GetActivity)
	}
}
