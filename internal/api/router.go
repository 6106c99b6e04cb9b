package api

import (
	"net/http"

	"github.com/claro-app/claro-server/internal/access"
	"github.com/claro-app/claro-server/internal/auth"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/observability/metrics"
	"github.com/claro-app/claro-server/internal/realtime"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/claro-app/claro-server/pkg/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter wires middleware, handlers and routes. Everything under /api
// except registration and login requires a bearer token.
func SetupRouter(
	cfg *config.Config,
	db *database.Database,
	guard *access.Guard,
	jwtManager *pkgauth.JWTManager,
	hub *realtime.Hub,
	broadcaster realtime.Broadcaster,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())
	router.GET("/ws", hub.ServeWS)

	authHandler := NewAuthHandler(db, jwtManager, logger)
	projectHandler := NewProjectHandler(db, guard, broadcaster, logger)
	taskHandler := NewTaskHandler(db, guard, broadcaster, logger)
	dashboardHandler := NewDashboardHandler(db)
	notificationHandler := NewNotificationHandler(db)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(auth.Middleware(db, jwtManager))
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)

			protected.GET("/projects", projectHandler.ListProjects)
			protected.POST("/projects", projectHandler.CreateProject)
			protected.GET("/projects/:id", projectHandler.GetProject)
			protected.PUT("/projects/:id", projectHandler.UpdateProject)
			protected.DELETE("/projects/:id", projectHandler.DeleteProject)
			protected.POST("/projects/:id/members", projectHandler.AddMember)
			protected.DELETE("/projects/:id/members/:userId", projectHandler.RemoveMember)

			protected.GET("/tasks", taskHandler.ListTasks)
			protected.POST("/tasks", taskHandler.CreateTask)
			protected.GET("/tasks/stats/overview", taskHandler.StatsOverview)
			protected.GET("/tasks/:id", taskHandler.GetTask)
			protected.PUT("/tasks/:id", taskHandler.UpdateTask)
			protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
			protected.GET("/tasks/:id/comments", taskHandler.ListTaskComments)
			protected.POST("/tasks/:id/comments", taskHandler.AddComment)

			protected.GET("/dashboard/stats", dashboardHandler.Stats)

			protected.GET("/notifications", notificationHandler.List)
			protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
			protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}
	}

	return router
}
