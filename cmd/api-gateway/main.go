package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/estudai/smart-plan-api/api/swagger"
	"github.com/estudai/smart-plan-api/internal/handler"
	"github.com/estudai/smart-plan-api/internal/middleware"
	"github.com/estudai/smart-plan-api/internal/models"
	"github.com/estudai/smart-plan-api/internal/repository"
	"github.com/estudai/smart-plan-api/internal/service"
	"github.com/estudai/smart-plan-api/pkg/cache"
	"github.com/estudai/smart-plan-api/pkg/config"
	"github.com/estudai/smart-plan-api/pkg/database"
	"github.com/estudai/smart-plan-api/pkg/logger"
	corsmiddleware "github.com/estudai/smart-plan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/estudai/smart-plan-api/pkg/middleware/requestid"
)

// @title Smart Plan API
// @version 1.0.0
// @description Study plan generation with spaced-repetition revisions
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, plan caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	subjectRepo := repository.NewSubjectRepository(db)
	planRepo := repository.NewPlanRepository(db)
	sessionRepo := repository.NewPlanSessionRepository(db)
	disciplineRepo := repository.NewDisciplineRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, metricsSvc, logr)
	generatorSvc := service.NewPlanGeneratorService(
		subjectRepo,
		planRepo,
		sessionRepo,
		db,
		metricsSvc,
		validate,
		logr,
		service.GeneratorConfig{
			MinSessionMinutes:    cfg.Planner.MinSessionMinutes,
			MaxSessionMinutes:    cfg.Planner.MaxSessionMinutes,
			RevisionPercentage:   cfg.Planner.RevisionPercentage,
			DefaultStrategy:      models.RevisionStrategy(cfg.Planner.DefaultStrategy),
			DefaultWindowStart:   cfg.Planner.DefaultWindowStart,
			DefaultWindowEnd:     cfg.Planner.DefaultWindowEnd,
			MaxPlacementAttempts: cfg.Planner.MaxPlacementAttempts,
			DailyLoadFactor:      cfg.Planner.DailyLoadFactor,
			FallbackMinutesFloor: cfg.Planner.FallbackMinutesFloor,
		},
	)

	var planCache *repository.CacheRepository
	if cfg.Cache.Enabled {
		planCache = cacheRepo
	}
	planSvc := service.NewPlanService(planRepo, sessionRepo, planCache, cfg.Cache.PlanTTL, logr)
	sessionSvc := service.NewSessionService(sessionRepo, planRepo, subjectRepo, planCache, validate, logr)
	exportSvc := service.NewExportService(planSvc, sessionRepo, disciplineRepo, nil, nil, logr)

	planHandler := handler.NewPlanHandler(generatorSvc, planSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.POST("/plans", planHandler.Generate)
		api.GET("/plans", planHandler.List)
		api.GET("/plans/:id", planHandler.Get)
		api.DELETE("/plans/:id", planHandler.Delete)
		api.PATCH("/plans/:id/status", planHandler.UpdateStatus)
		api.GET("/plans/:id/sessions", planHandler.Sessions)
		api.POST("/plans/:id/sessions", sessionHandler.Create)
		if cfg.Export.Enabled {
			api.GET("/plans/:id/export", exportHandler.Export)
		}
		api.PATCH("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
