package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

func RegisterRoutes(app *fiber.App, auth *AuthHandler, admin *AdminHandler, mw *Middleware) {
	client := app.Group("/api/client")
	client.Post("/register", auth.Register)
	client.Get("/confirm-email", auth.ConfirmEmail)
	client.Post("/login", auth.Login)
	client.Post("/refresh", auth.Refresh)
	client.Post("/logout", auth.Logout)
	client.Post("/forgot-password", auth.ForgotPassword)
	client.Post("/reset-password", auth.ResetPassword)
	client.Put("/change-password", mw.VerifyJWT(), auth.ChangePassword)

	// Admin-only endpoints
	adminGroup := app.Group("/api/admin", mw.VerifyJWT(), mw.RequireRoles(constant.RoleAdmin))
	adminGroup.Get("/clients", admin.ListClients)
	adminGroup.Put("/clients/:id", admin.UpdateClient)
	adminGroup.Delete("/clients/:id", admin.DeleteClient)
}

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

func RegisterHealthRoutes(app *fiber.App, db Pinger, log *zap.Logger) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
}
