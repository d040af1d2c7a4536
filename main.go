package main

import (
	"net/http"

	"menu-builder-api/config"
	"menu-builder-api/logger"
	"menu-builder-api/middleware"
	"menu-builder-api/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log, err := logger.New(config.GetEnv("APP_ENV", "dev"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Set Gin mode
	if config.GetEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database
	config.InitDB()

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	r.Use(middleware.RequestID())

	// CORS for the wizard frontend
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Menu Builder API",
			"version": "1.0.0",
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "🍽️ Welcome to the Menu Builder API",
			"health":  "/health",
			"menus":   "/api/menus/:slug",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, config.DB, log)

	// Start server
	port := config.GetEnv("PORT", "8080")
	log.Info("🚀 Server running", "addr", "http://localhost:"+port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server", "error", err)
	}
}
