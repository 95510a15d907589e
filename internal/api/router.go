package api

import (
	"github.com/gin-gonic/gin"
	"github.com/minsu/vericlip/internal/api/handler"
	"github.com/minsu/vericlip/internal/api/middleware"
	"github.com/minsu/vericlip/internal/logger"
	"github.com/minsu/vericlip/internal/repository"
	"github.com/minsu/vericlip/internal/service"
)

// RouterDeps carries everything the route handlers need.
type RouterDeps struct {
	AnalyzeService *service.AnalyzeService
	AnalysisRepo   *repository.AnalysisRepository
	CreditRepo     *repository.CreditRepository
	SettingRepo    *repository.SettingRepository
	Logger         *logger.Logger
	CORS           middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps, mode string) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(deps.CORS))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	analysisHandler := handler.NewAnalysisHandler(deps.AnalyzeService, deps.AnalysisRepo)
	adminHandler := handler.NewAdminHandler(deps.CreditRepo, deps.SettingRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Analyses
		v1.POST("/analyses", analysisHandler.Create)
		v1.GET("/analyses/:id", analysisHandler.GetByID)
		v1.GET("/videos/:videoId/analysis", analysisHandler.GetLatestForVideo)

		// Admin
		admin := v1.Group("/admin")
		{
			admin.GET("/credits/:userId", adminHandler.GetCredits)
			admin.PUT("/credits/:userId", adminHandler.SetCredits)
			admin.GET("/settings/:key", adminHandler.GetSetting)
			admin.PUT("/settings/:key", adminHandler.SetSetting)
		}
	}

	return r
}
