package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/config"
	creditsRepository "github.com/clipforge/pipeline/internal/credits/repository"
	creditsUsecase "github.com/clipforge/pipeline/internal/credits/usecase"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/pipeline/handlers"
	pipelineRepository "github.com/clipforge/pipeline/internal/pipeline/repository"
	projectsRepository "github.com/clipforge/pipeline/internal/projects/repository"
	"github.com/clipforge/pipeline/internal/render"
	storageRepository "github.com/clipforge/pipeline/internal/storage/repository"
	"github.com/clipforge/pipeline/pkg/db/aws"
	"github.com/clipforge/pipeline/pkg/db/postgres"
	clientRedis "github.com/clipforge/pipeline/pkg/db/redis"
	"github.com/clipforge/pipeline/pkg/logger"
)

func main() {
	log.Println("Starting pipeline worker")
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	appLogger.Infof("redis connected")
	defer redisClient.Close()

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	projectsRepo := projectsRepository.NewProjectsRepo(psqlDB)
	creditsRepo := creditsRepository.NewCreditsRepo(psqlDB)
	creditsRedisRepo := creditsRepository.NewCreditsRedisRepo(redisClient)
	awsRepo := storageRepository.NewAwsRepository(s3Client, presignClient, cfg.S3.Bucket)
	queueRepo := pipelineRepository.NewQueueRedisRepo(redisClient)

	orchestrator := pipeline.NewOrchestrator(queueRepo, appLogger)
	creditsUC := creditsUsecase.NewCreditsUseCase(cfg, creditsRepo, creditsRedisRepo, appLogger)
	runner := render.NewRunner(cfg, appLogger)
	engine := captions.NewEngine(runner, captions.NewFrameRenderer(cfg), appLogger)

	deps := &handlers.Deps{
		Cfg:         cfg,
		Projects:    projectsRepo,
		Storage:     awsRepo,
		Credits:     creditsUC,
		Runner:      runner,
		Captions:    engine,
		Transcriber: handlers.NewHTTPTranscriber(cfg.Providers.TranscriberURL),
		Detector:    handlers.NewHTTPDetector(cfg.Providers.DetectorURL),
		Downloader:  handlers.NewHTTPDownloader(),
		Logger:      appLogger,
	}

	onFailure := handlers.NewFailureHook(projectsRepo, creditsUC, appLogger)
	worker := pipeline.NewWorker(cfg, queueRepo, orchestrator, onFailure, appLogger)
	worker.Register(handlers.NewImportHandler(deps))
	worker.Register(handlers.NewTranscriptionHandler(deps))
	worker.Register(handlers.NewDetectionHandler(deps))
	worker.Register(handlers.NewClipExportHandler(deps))
	worker.Register(handlers.NewCaptionExportHandler(deps))
	worker.Register(handlers.NewReframeHandler(deps))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Infof("shutting down worker")
		cancel()
	}()

	worker.Start(ctx)
}
