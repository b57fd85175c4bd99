package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studiofit/gymgrid-api/api/swagger"
	"github.com/studiofit/gymgrid-api/internal/handler"
	"github.com/studiofit/gymgrid-api/internal/middleware"
	"github.com/studiofit/gymgrid-api/internal/models"
	"github.com/studiofit/gymgrid-api/internal/repository"
	"github.com/studiofit/gymgrid-api/internal/service"
	"github.com/studiofit/gymgrid-api/pkg/cache"
	"github.com/studiofit/gymgrid-api/pkg/config"
	"github.com/studiofit/gymgrid-api/pkg/database"
	"github.com/studiofit/gymgrid-api/pkg/logger"
	corsmiddleware "github.com/studiofit/gymgrid-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studiofit/gymgrid-api/pkg/middleware/requestid"
)

// @title GymGrid API
// @version 0.1.0
// @description Recurring class grid and attendance gateway
// @BasePath /
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

	location, err := time.LoadLocation(cfg.Grid.Timezone)
	if err != nil {
		logr.Sugar().Fatalw("invalid grid timezone", "timezone", cfg.Grid.Timezone, "error", err)
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Grid.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Grid.CacheTTL, logr, cfg.Grid.CacheEnabled)

	validate := validator.New()
	basis := models.OccupancyBasis(cfg.Attendance.OccupancyBasis)

	templateRepo := repository.NewTemplateRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	templateSvc := service.NewTemplateService(templateRepo, validate, logr)
	gridSvc := service.NewGridService(templateRepo, attendanceRepo, cacheSvc, validate, logr, service.GridConfig{
		OccupancyBasis: basis,
		Location:       location,
		MaxWindowDays:  cfg.Grid.MaxWindowDays,
		CacheTTL:       cfg.Grid.CacheTTL,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, templateRepo, cacheSvc, metricsSvc, logr, cfg.Attendance.ToggleMaxRetries, basis)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	templateHandler := handler.NewTemplateHandler(templateSvc)
	gridHandler := handler.NewGridHandler(gridSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
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
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	api.GET("/units/:id/occurrences", gridHandler.Occurrences)
	api.GET("/attendance/:instanceId", attendanceHandler.Occurrence)

	api.GET("/class-templates", templateHandler.List)
	api.GET("/class-templates/:id", templateHandler.Get)

	staff := api.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor))
	staff.POST("/attendance/:instanceId/present", attendanceHandler.MarkPresent)
	staff.POST("/attendance/:instanceId/absent", attendanceHandler.MarkAbsent)

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/class-templates", templateHandler.Create)
	admin.PUT("/class-templates/:id", templateHandler.Update)
	admin.DELETE("/class-templates/:id", templateHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
