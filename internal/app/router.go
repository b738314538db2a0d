package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"nclex_prep_backend/docs"
	"nclex_prep_backend/internal/config"
	"nclex_prep_backend/internal/middleware"
	"nclex_prep_backend/internal/model"
	"nclex_prep_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.Health)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		qbank := authGroup.Group("/qbanks/:qbankId")
		{
			qbank.POST("/attempts/start", c.attempt.StartAttempt)
			qbank.POST("/attempts/finalize", c.attempt.FinalizeAttempt)
			qbank.GET("/attempts", c.attempt.ListAttempts)
			qbank.POST("/questions/:questionId/answer", c.attempt.SubmitAnswer)

			qbank.GET("/performance", c.performance.GetPerformance)
			qbank.GET("/readiness", c.performance.GetReadiness)

			instructor := qbank.Group("")
			instructor.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
			{
				instructor.GET("/students/:userId/performance", c.performance.GetStudentPerformance)
			}
		}
	}
}
