package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kurihiro0119/devprofile-api/internal/logging"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, gatherer prometheus.Gatherer, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	logger = logging.Component(logger, "http")

	// Middleware
	router.Use(RequestID())
	router.Use(Logger(logger))
	router.Use(Recovery(logger))
	router.Use(CORS())

	// Discovery and health
	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// GitHub repositories
	router.GET("/repos", handler.GetProfileRepositories)
	router.GET("/repos/:username", handler.GetUserRepositories)

	// Ingestion
	gitingest := router.Group("/gitingest")
	{
		gitingest.GET("", handler.GetRepositoryDigestByURL)
		gitingest.POST("", handler.GetRepositoryDigests)
		gitingest.GET("/:owner/:repo", handler.GetRepositoryDigest)
	}

	// Scraping agents
	router.POST("/linkedin-profile", handler.GetLinkedInProfile)
	router.POST("/linkedin-posts", handler.GetLinkedInPosts)
	router.POST("/twitter-posts", handler.GetTwitterPosts)

	return router
}
