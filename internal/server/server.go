package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/featureboard/feature-voting/backend/internal/config"
	"github.com/featureboard/feature-voting/backend/internal/database"
	"github.com/featureboard/feature-voting/backend/internal/handlers"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB())

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := config.GetEnv("PORT", "8080")

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration (web + mobile clients)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Feature routes
		api.GET("/features", s.handler.Feature.GetFeatures)
		api.GET("/features/:id", s.handler.Feature.GetFeature)
		api.POST("/features", s.handler.Feature.CreateFeature)

		// Vote routes
		api.POST("/features/:id/vote", s.handler.Feature.VoteFeature)
		api.DELETE("/features/:id/vote", s.handler.Feature.UnvoteFeature)
		api.GET("/votes", s.handler.Vote.GetVotes)

		// User routes
		api.GET("/users/:email", s.handler.User.GetUserByEmail)
	}

	return r
}
