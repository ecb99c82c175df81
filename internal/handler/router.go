package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/studyhall/planner-api/internal/middleware"
	"github.com/studyhall/planner-api/internal/service"
	"github.com/studyhall/planner-api/pkg/config"
	"github.com/studyhall/planner-api/pkg/logger"
	corsmiddleware "github.com/studyhall/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyhall/planner-api/pkg/middleware/requestid"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth      *service.AuthService
	Subjects  *service.SubjectService
	Classes   *service.ClassService
	Tasks     *service.TaskService
	Sessions  *service.SessionService
	Dashboard *service.DashboardService
	Exports   *service.ExportService
	Metrics   *service.MetricsService
}

// NewRouter builds the gin engine with all routes and middleware attached.
func NewRouter(cfg *config.Config, logr *zap.Logger, svcs Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(svcs.Metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := NewAuthHandler(svcs.Auth)
	subjectHandler := NewSubjectHandler(svcs.Subjects)
	classHandler := NewClassHandler(svcs.Classes)
	taskHandler := NewTaskHandler(svcs.Tasks)
	sessionHandler := NewSessionHandler(svcs.Sessions)
	dashboardHandler := NewDashboardHandler(svcs.Dashboard)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(svcs.Auth))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/subjects", subjectHandler.List)
		protected.POST("/subjects", subjectHandler.Create)
		protected.DELETE("/subjects/:id", subjectHandler.Delete)

		protected.GET("/classes", classHandler.List)
		protected.POST("/classes", classHandler.Create)
		protected.DELETE("/classes/:id", classHandler.Delete)

		protected.GET("/tasks", taskHandler.List)
		protected.POST("/tasks", taskHandler.Create)
		protected.PATCH("/tasks/:id", taskHandler.Update)
		protected.DELETE("/tasks/:id", taskHandler.Delete)

		protected.GET("/sessions", sessionHandler.List)
		protected.POST("/sessions", sessionHandler.Create)
		protected.PATCH("/sessions/:id", sessionHandler.Update)
		protected.DELETE("/sessions/:id", sessionHandler.Delete)

		protected.GET("/dashboard", dashboardHandler.Summary)
	}

	if svcs.Exports != nil {
		exportHandler := NewExportHandler(svcs.Exports)
		// Download authenticates by signed token, not by JWT.
		api.GET("/exports/download/:token", exportHandler.Download)

		exports := api.Group("/exports")
		exports.Use(middleware.JWT(svcs.Auth))
		{
			exports.POST("", exportHandler.Create)
			exports.GET("/:id", exportHandler.Get)
		}
	}

	return r
}
