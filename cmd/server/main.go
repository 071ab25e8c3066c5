package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/handlers"
	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg"
)

const cachePrefix = "quiz"

func main() {
	app := fx.New(
		fx.NopLogger,

		// Infrastructure
		fx.Provide(
			config.LoadConfig,
			newLogger,
			utils.ToSlogLogger,
			newDatabase,
			newRedis,
			newCache,
			newPublisher,
		),

		// Repositories
		fx.Provide(
			postgres.NewLessonPostgreSQL,
			postgres.NewAttemptPostgreSQL,
			postgres.NewProgressPostgreSQL,
			postgres.NewTransactor,
		),

		// Services and HTTP
		fx.Provide(
			validator.New,
			newServiceDeps,
			services.NewServiceManager,
			handlers.NewHandlerManager,
			newRouter,
		),

		fx.Invoke(startServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("failed to start quiz service: %v", err)
	}
	<-app.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("quiz service stopped with error: %v", err)
	}
}

func newLogger(cfg *config.Config) utils.Logger {
	return utils.NewLogger(cfg.Environment)
}

func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger utils.Logger) (*gorm.DB, error) {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			logger.Info("Closing database connection")
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	client, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func newCache(client *redis.Client, logger *slog.Logger) cache.CacheService {
	return cache.NewRedisCache(client, cachePrefix, logger)
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(publisher.Close))
	return publisher, nil
}

type serviceParams struct {
	fx.In

	Config    *config.Config
	Lessons   repositories.LessonContentRepository
	Attempts  repositories.AttemptRepository
	Progress  repositories.ProgressRepository
	Tx        repositories.Transactor
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Validator *validator.Validator
	Logger    *slog.Logger
}

func newServiceDeps(p serviceParams) services.Deps {
	return services.Deps{
		Lessons:          p.Lessons,
		Attempts:         p.Attempts,
		Progress:         p.Progress,
		Tx:               p.Tx,
		Cache:            p.Cache,
		Publisher:        p.Publisher,
		Validator:        p.Validator,
		Logger:           p.Logger,
		AttemptCacheTTL:  p.Config.AttemptCacheTTL,
		DocumentCacheTTL: p.Config.QuizCacheTTL,
	}
}

func newRouter(cfg *config.Config, logger utils.Logger, hm *handlers.HandlerManager) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	auth := middleware.CasdoorAuth(middleware.NewCasdoorParser(cfg.Casdoor), logger)
	hm.SetupRoutes(router, auth)
	return router
}

func startServer(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, logger utils.Logger) {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Quiz service starting", "port", cfg.Port, "environment", cfg.Environment)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server stopped unexpectedly", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Quiz service shutting down")
			return server.Shutdown(ctx)
		},
	})
}
