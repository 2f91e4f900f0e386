package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/store"
	"github.com/example/storefront/internal/utils"
)

// NewApp builds the fiber application with its middleware chain and routes.
func NewApp(cfg *config.Config, st store.Store, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(middleware.RequestLogging(log))
	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	Register(app, cfg, st, log)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, st store.Store, log zerolog.Logger) {
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.TokenExpires)
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	var notifier handlers.OrderNotifier
	if telegramService.Enabled() {
		notifier = telegramService
	}

	authHandler := handlers.NewAuthHandler(st, hasher, tokens, log)
	profileHandler := handlers.NewProfileHandler(st, hasher, log)
	orderHandler := handlers.NewOrderHandler(st, notifier, log)

	requireAuth := middleware.RequireAuthenticated(tokens, log)
	requireAdmin := middleware.RequireAdmin(st, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", limiter.Handler(), authHandler.Register)
	auth.Post("/login", limiter.Handler(), authHandler.Login)
	auth.Post("/forgot-password", limiter.Handler(), authHandler.ForgotPassword)

	auth.Get("/user-auth", requireAuth, authHandler.UserAuth)
	auth.Get("/admin-auth", requireAuth, requireAdmin, authHandler.AdminAuth)

	auth.Put("/profile", requireAuth, profileHandler.UpdateProfile)

	auth.Get("/orders", requireAuth, orderHandler.ListOrders)
	auth.Get("/all-orders", requireAuth, requireAdmin, orderHandler.ListAllOrders)
	auth.Put("/order-status/:orderId", requireAuth, requireAdmin, orderHandler.UpdateOrderStatus)
}
