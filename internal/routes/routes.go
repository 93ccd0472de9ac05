package routes

import (
	"net/http"

	"projecthub-api/internal/handlers"
	"projecthub-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the API engine. CORS is applied around the engine by
// the server (see cmd/server).
func SetupRoutes() *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestLogger())

	ginRouter.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "ProjectHub API is running",
		})
	})

	handlers.Register(ginRouter.Group("/api"))

	return ginRouter
}
