package api

import (
	"net/http"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/service"

	"github.com/gin-gonic/gin"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Uploads  service.UploadService
	Reports  service.ReportService
	History  service.HistoryService
	Pipeline Pipeline
}

// NewRouter builds the engine with the global middleware and all routes.
func NewRouter(cfg config.ServerConfig, maxBytes int64, svcs Services, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(CORS(cfg.AllowedOrigins))
	}
	SetupRoutes(router, cfg, maxBytes, svcs, log)
	return router
}

func SetupRoutes(router *gin.Engine, cfg config.ServerConfig, maxBytes int64, svcs Services, log *logger.Logger) {
	authHandler := NewAuthHandler(svcs.Auth, log)
	fileHandler := NewFileHandler(svcs.Uploads, svcs.Pipeline, maxBytes, log)
	reportHandler := NewReportHandler(svcs.Reports, svcs.Pipeline, maxBytes, log)
	historyHandler := NewHistoryHandler(svcs.History, log)

	authMiddleware := AuthMiddleware(svcs.Auth, log)
	// one limiter shared by both processing endpoints
	processingLimit := ProcessingRateLimit(cfg.ProcessingRate, cfg.ProcessingBurst)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
	})

	apiGroup := router.Group("/api")
	apiGroup.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
	})

	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		authGroup.GET("/me", authMiddleware, authHandler.Me)
		authGroup.PUT("/user/:id", authMiddleware, authHandler.UpdateUser)
		authGroup.PATCH("/user/:id", authMiddleware, authHandler.DeleteUser)
	}

	protected := apiGroup.Group("")
	protected.Use(authMiddleware)
	{
		files := protected.Group("/files")
		{
			files.POST("/upload", processingLimit, fileHandler.Upload)
			files.GET("", fileHandler.List)
			files.GET("/:id", fileHandler.Get)
			files.GET("/download/:id", fileHandler.Download)
			files.PUT("/upload/:id", fileHandler.Update)
			files.PATCH("/upload/:id/delete", fileHandler.Delete)
		}

		reports := protected.Group("/reports")
		{
			reports.POST("", processingLimit, reportHandler.Create)
			reports.GET("", reportHandler.List)
			reports.GET("/:id", reportHandler.Get)
			reports.GET("/download/:id", reportHandler.DownloadArchive)
			reports.GET("/download/pdf/:id", reportHandler.DownloadPDF)
			reports.PUT("/:id", reportHandler.Update)
			reports.PATCH("/:id", reportHandler.Delete)
		}

		history := protected.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.POST("", historyHandler.Create)
			history.PUT("/:id", historyHandler.Update)
			history.DELETE("/:id", historyHandler.Delete)
		}
	}
}
