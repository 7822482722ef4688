package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadplan/timetable-api/api/swagger"
	"github.com/acadplan/timetable-api/internal/handler"
	"github.com/acadplan/timetable-api/internal/middleware"
	"github.com/acadplan/timetable-api/internal/repository"
	"github.com/acadplan/timetable-api/internal/service"
	"github.com/acadplan/timetable-api/internal/solver"
	"github.com/acadplan/timetable-api/internal/timetable"
	"github.com/acadplan/timetable-api/pkg/cache"
	"github.com/acadplan/timetable-api/pkg/config"
	"github.com/acadplan/timetable-api/pkg/database"
	"github.com/acadplan/timetable-api/pkg/logger"
	corsmiddleware "github.com/acadplan/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadplan/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Weekly class timetable generation backed by a 0/1 constraint model
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, proposals fall back to process memory", "error", err)
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	var proposals service.ProposalKeeper
	if redisClient != nil {
		proposals = repository.NewProposalCache(redisClient)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, teacherRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)

	schedulerCfg := timetable.Config{
		AtomicMinutes:     cfg.Scheduler.AtomicMinutes,
		ReservedSlots:     cfg.Scheduler.ReservedSlots,
		SingleDayMaxUnits: cfg.Scheduler.SingleDayMax,
		SplitLengths:      cfg.Scheduler.SplitLengths,
		MaxTeacherUnits:   cfg.Scheduler.MaxTeacherUnits,
	}
	timetableSvc := service.NewTimetableService(
		timetableRepo, teacherRepo, courseRepo, roomRepo,
		proposals, solver.NewBacktrack(), validate, logr,
		service.TimetableServiceConfig{
			Scheduler:    schedulerCfg,
			SolveTimeout: cfg.Solver.Timeout,
			SolveBudget:  cfg.Solver.Budget,
			Seed:         cfg.Solver.Seed,
			ProposalTTL:  cfg.Proposals.TTL,
			MaxTeachers:  cfg.Scheduler.MaxSnapshotTeachers,
		},
	)
	metricsSvc := service.NewMetricsService()
	timetableSvc.SetMetrics(metricsSvc)
	exportSvc := service.NewExportService(timetableSvc, timetableSvc, nil, nil, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	teachers := protected.Group("/teachers")
	teachers.GET("", teacherHandler.List)
	teachers.POST("", teacherHandler.Create)
	teachers.GET("/:id", teacherHandler.Get)
	teachers.PUT("/:id", teacherHandler.Update)
	teachers.DELETE("/:id", teacherHandler.Delete)
	teachers.GET("/:id/availability", teacherHandler.GetAvailability)
	teachers.PUT("/:id/availability", teacherHandler.SetAvailability)

	courses := protected.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.POST("", courseHandler.Create)
	courses.GET("/:id", courseHandler.Get)
	courses.PUT("/:id", courseHandler.Update)
	courses.DELETE("/:id", courseHandler.Delete)

	rooms := protected.Group("/rooms")
	rooms.GET("", roomHandler.List)
	rooms.POST("", roomHandler.Create)
	rooms.GET("/:id", roomHandler.Get)
	rooms.PUT("/:id", roomHandler.Update)
	rooms.DELETE("/:id", roomHandler.Delete)

	timetables := protected.Group("/timetables")
	timetables.POST("/generate", timetableHandler.Generate)
	timetables.POST("/generate/catalog", timetableHandler.GenerateFromCatalog)
	timetables.POST("/save", timetableHandler.Save)
	timetables.GET("", timetableHandler.List)
	timetables.GET("/:id", timetableHandler.Get)
	timetables.GET("/:id/export", timetableHandler.ExportTimetable)
	timetables.GET("/proposals/:id/export", timetableHandler.ExportProposal)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
