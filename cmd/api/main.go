package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quizard-tools/internal/adapter"
	"quizard-tools/internal/adapter/auth"
	"quizard-tools/internal/adapter/backend"
	"quizard-tools/internal/adapter/gcs"
	"quizard-tools/internal/cache"
	"quizard-tools/internal/config"
	"quizard-tools/internal/content"
	"quizard-tools/internal/domain"
	"quizard-tools/internal/handler"
	"quizard-tools/internal/logger"
	"quizard-tools/internal/middleware"
	"quizard-tools/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.Any("request_id", c.Locals(middleware.RequestIDKey)),
		)

		return err
	}
}

func main() {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Service credential source
	var tokenProvider auth.TokenProvider
	switch cfg.Auth.Mode {
	case "oidc":
		tokenProvider, err = auth.NewOIDCProvider(cfg.Backend.Audience)
		if err != nil {
			appLogger.Fatal("Failed to create OIDC token provider", zap.Error(err))
		}
		appLogger.Info("OIDC token provider initialized", zap.String("audience", cfg.Backend.Audience))
	case "hs256":
		tokenProvider, err = auth.NewHS256Provider(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Backend.Audience, cfg.Auth.SessionTokenTTL)
		if err != nil {
			appLogger.Fatal("Failed to create HS256 token provider", zap.Error(err))
		}
		appLogger.Info("HS256 token provider initialized")
	default:
		appLogger.Fatal("Unsupported auth mode; expected oidc or hs256", zap.String("mode", cfg.Auth.Mode))
	}

	sessionSigner, err := auth.NewSessionSigner(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.SessionTokenTTL)
	if err != nil {
		appLogger.Fatal("Failed to create session signer", zap.Error(err))
	}

	// Content cache is advisory; without a redis address materialization
	// simply runs uncached.
	var contentCache domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		contentCache = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Content cache initialized", zap.String("address", cfg.Redis.Address))
	} else {
		appLogger.Warn("REDIS_ADDRESS not set; content caching disabled")
	}

	objectStore := gcs.NewObjectStore(appLogger)
	defer objectStore.Close()

	contentReader := content.NewReader(
		objectStore,
		&http.Client{Timeout: cfg.Content.FetchTimeout},
		contentCache,
		cfg.Content.CacheTTL,
		appLogger,
	)

	backendClient := backend.NewClient(cfg.Backend, tokenProvider, sessionSigner, appLogger)
	appLogger.Info("Backend client initialized", zap.String("base_url", cfg.Backend.BaseURL))

	quizToolService := service.NewQuizToolService(backendClient, contentReader)
	toolsHandler := handler.NewToolsHandler(quizToolService)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	tools := app.Group("/tools")
	tools.Post("/materials", toolsHandler.GetMaterials)
	tools.Post("/content", toolsHandler.ReadContent)
	tools.Post("/validate", toolsHandler.ValidateQuiz)
	tools.Post("/quizzes", toolsHandler.CreateQuiz)
	tools.Put("/quizzes/:quizId", toolsHandler.ReviseQuiz)
	tools.Post("/announcements", toolsHandler.Announce)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
