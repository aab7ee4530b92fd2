package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/config"
	"github.com/AnthoniusHendriyanto/client-auth-service/db"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/handler"
	repo "github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/repository/postgres"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/logger"
	"github.com/AnthoniusHendriyanto/client-auth-service/internal/mailer"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	notifier, err := mailer.New(cfg, log)
	if err != nil {
		log.Fatal("mailer setup failed", zap.Error(err))
	}

	accountRepo := repo.NewPostgresRepository(dbPool)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.RefreshTokenSecret, service.TokenTTLFromConfig(cfg))
	hasher := service.NewBcryptHasher(cfg.BcryptCost)

	accountService := service.NewAccountService(accountRepo, tokenService, hasher, notifier, cfg, log)
	sessionService := service.NewSessionService(accountRepo, tokenService, hasher, cfg, log)
	adminService := service.NewAdminService(accountRepo, hasher, cfg, log)

	if err := adminService.EnsureAdmin(ctx); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
				return c.Status(code).JSON(fiber.Map{"message": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"message": err.Error()})
		},
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowCredentials: true,
	}))

	authHandler := handler.NewAuthHandler(accountService, sessionService, log)
	adminHandler := handler.NewAdminHandler(adminService, log)
	handler.RegisterRoutes(app, authHandler, adminHandler, handler.NewMiddleware(tokenService, log))
	handler.RegisterHealthRoutes(app, dbPool, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server error", zap.Error(err))
	}
	log.Info("server stopped")
}
