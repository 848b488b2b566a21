package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/config"
	"github.com/storytelling-api/internal/service"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, cfg *config.Config, health HealthChecker, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORS))

	// Handlers
	authHandler := NewAuthHandler(services, log)
	userHandler := NewUserHandler(services, log)
	storyHandler := NewStoryHandler(services, log)
	chapterHandler := NewChapterHandler(services, log)
	commentHandler := NewCommentHandler(services, log)
	followHandler := NewFollowHandler(services, log)
	taxonomyHandler := NewTaxonomyHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(health))

	api := router.Group("/api")
	api.Use(authenticate(services.Auth))
	protected := requireAuth()

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", protected, authHandler.Logout)
	}

	user := api.Group("/user", protected)
	{
		user.GET("", userHandler.List)
		user.GET("/me", userHandler.Me)
		user.PATCH("/me", userHandler.UpdateMe)
		user.GET("/me/recent-stories", userHandler.RecentStories)
	}
	api.GET("/users/:user_id", userHandler.Get)

	stories := api.Group("/stories")
	{
		stories.POST("", protected, storyHandler.Create)
		stories.GET("", storyHandler.List)
		stories.GET("/:story_id", storyHandler.Get)
		stories.PATCH("/:story_id", protected, storyHandler.Update)
		stories.DELETE("/:story_id", protected, storyHandler.Delete)
		stories.POST("/:story_id/view", protected, storyHandler.RecordView)

		chapters := stories.Group("/:story_id/chapters")
		{
			chapters.POST("", protected, chapterHandler.Create)
			chapters.GET("", chapterHandler.List)
			chapters.GET("/:chapter_id", chapterHandler.Get)
			chapters.PATCH("/:chapter_id", protected, chapterHandler.Update)
			chapters.DELETE("/:chapter_id", protected, chapterHandler.Delete)
			chapters.POST("/:chapter_id/comments", protected, commentHandler.CreateForChapter)
			chapters.GET("/:chapter_id/comments", commentHandler.ListForChapter)
		}
	}

	comments := api.Group("/comments")
	{
		comments.POST("", protected, commentHandler.Create)
		comments.GET("", commentHandler.List)
	}

	follows := api.Group("/follows")
	{
		follows.POST("", protected, followHandler.Follow)
		follows.DELETE("", protected, followHandler.Unfollow)
		follows.GET("", followHandler.List)
	}

	api.GET("/categories", taxonomyHandler.ListCategories)
	api.POST("/categories", protected, taxonomyHandler.CreateCategory)
	api.GET("/tags", taxonomyHandler.ListTags)
	api.POST("/tags", protected, taxonomyHandler.CreateTag)

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if health != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "storytelling-api",
		})
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
