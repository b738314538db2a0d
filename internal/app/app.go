package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nclex_prep_backend/internal/config"
	"nclex_prep_backend/internal/controller"
	"nclex_prep_backend/internal/repository"
	"nclex_prep_backend/internal/service"
	"nclex_prep_backend/pkg/configwatcher"
	"nclex_prep_backend/pkg/database"
	"nclex_prep_backend/pkg/keylock"
	"nclex_prep_backend/pkg/logger"
	"nclex_prep_backend/pkg/monitoring"
	"nclex_prep_backend/pkg/security"
	"nclex_prep_backend/pkg/tracing"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	question    *repository.QuestionRepository
	attempt     *repository.AttemptRepository
	enrollment  *repository.EnrollmentRepository
	performance *repository.PerformanceRepository
}

type services struct {
	stats       *service.StatsService
	readiness   *service.ReadinessService
	attempt     *service.AttemptService
	performance *service.PerformanceService
}

type controllers struct {
	attempt     *controller.AttemptController
	performance *controller.PerformanceController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	countTTL := time.Duration(cfg.Grading.CountCacheTTL) * time.Second
	return &repositories{
		question:    repository.NewQuestionRepository(db, rdb, countTTL),
		attempt:     repository.NewAttemptRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		performance: repository.NewPerformanceRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}
	locks := keylock.New()

	s.stats = service.NewStatsService(repos.enrollment, repos.performance, repos.question)
	s.readiness = service.NewReadinessService(repos.attempt, repos.performance, repos.question, repos.enrollment)
	s.attempt = service.NewAttemptService(
		db,
		repos.attempt,
		repos.question,
		repos.enrollment,
		repos.performance,
		s.stats,
		s.readiness,
		locks,
		cfg.Grading.PassingScore,
	)
	s.performance = service.NewPerformanceService(repos.enrollment, repos.performance, s.readiness)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		attempt:     controller.NewAttemptController(s.attempt),
		performance: controller.NewPerformanceController(s.performance),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) watchConfig() {
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(cfg interface{}) {
		newCfg, ok := cfg.(*config.Config)
		if !ok {
			return
		}
		a.Config = newCfg
		for _, callback := range a.configCallbacks {
			callback(newCfg)
		}
		logger.Log.Info("config reloaded")
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// The count cache is optional; run without it.
		logger.Log.Warn("Failed to initialize redis, count caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, db)
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("nclex-prep", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.watchConfig()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
