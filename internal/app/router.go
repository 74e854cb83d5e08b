package app

import (
	"lingua_edu_backend/docs"
	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.Profile)

		// 定级测评
		placement := authGroup.Group("/placement")
		{
			placement.GET("/products", c.placement.Products)
			placement.GET("/result", c.placement.LatestResult)
			placement.POST("/sessions", c.placement.StartSession)
			placement.GET("/sessions/:id", c.placement.Snapshot)
			placement.PUT("/sessions/:id/answers/:index", c.placement.SubmitAnswer)
			placement.POST("/sessions/:id/submit", c.placement.SubmitPhase)
			placement.DELETE("/sessions/:id", c.placement.Abandon)
			placement.GET("/sessions/:id/result", c.placement.SessionResult)
		}

		// 词汇掌握度
		vocab := authGroup.Group("/vocab")
		{
			vocab.GET("/:id/quiz", c.mastery.Quiz)
			vocab.POST("/:id/quiz", c.mastery.Validate)
		}

		// 练习
		practice := authGroup.Group("/practice")
		{
			practice.POST("/questions/:id/submit", c.practice.Submit)
			practice.GET("/stats", c.practice.Stats)
		}
	}
}
