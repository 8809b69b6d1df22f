package server

import (
	"net/http"

	creditsHttp "github.com/clipforge/pipeline/internal/credits/delivery/http"
	creditsRepository "github.com/clipforge/pipeline/internal/credits/repository"
	creditsUsecase "github.com/clipforge/pipeline/internal/credits/usecase"
	"github.com/clipforge/pipeline/internal/middleware"
	"github.com/clipforge/pipeline/internal/pipeline"
	pipelineRepository "github.com/clipforge/pipeline/internal/pipeline/repository"
	projectsHttp "github.com/clipforge/pipeline/internal/projects/delivery/http"
	projectsRepository "github.com/clipforge/pipeline/internal/projects/repository"
	projectsUsecase "github.com/clipforge/pipeline/internal/projects/usecase"
	storageRepository "github.com/clipforge/pipeline/internal/storage/repository"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/labstack/echo/v4"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	pRepo := projectsRepository.NewProjectsRepo(s.db)
	cRepo := creditsRepository.NewCreditsRepo(s.db)
	cRedisRepo := creditsRepository.NewCreditsRedisRepo(s.redisClient)
	awsRepo := storageRepository.NewAwsRepository(s.s3Client, s.preSignClient, s.cfg.S3.Bucket)
	queueRepo := pipelineRepository.NewQueueRedisRepo(s.redisClient)

	orchestrator := pipeline.NewOrchestrator(queueRepo, s.logger)
	creditsUC := creditsUsecase.NewCreditsUseCase(s.cfg, cRepo, cRedisRepo, s.logger)
	projectsUC := projectsUsecase.NewProjectsUseCase(s.cfg, pRepo, awsRepo, orchestrator, creditsUC, s.logger)

	projectsHandlers := projectsHttp.NewProjectsHandler(projectsUC)
	creditsHandlers := creditsHttp.NewCreditsHandler(creditsUC)

	mw := middleware.NewMiddlewareManager(s.cfg, []string{"*"}, s.logger)
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	projectsGroup := v1.Group("/projects")
	exportsGroup := v1.Group("/exports")
	creditsGroup := v1.Group("/credits")
	queuesGroup := v1.Group("/queues")

	projectsHttp.MapProjectsRoutes(projectsGroup, projectsHandlers)
	projectsHttp.MapExportRoutes(exportsGroup, projectsHandlers)
	creditsHttp.MapCreditsRoutes(creditsGroup, creditsHandlers)
	queuesGroup.GET("/metrics", func(c echo.Context) error {
		metrics, err := orchestrator.Metrics(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, metrics)
	})
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}
