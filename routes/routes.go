package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"

	"newsletter/config"
	controller "newsletter/controllers"
	"newsletter/middleware"
	"newsletter/recovery"
	"newsletter/store"
	"newsletter/subscription"
	"newsletter/verifier"
)

const loginWindow = 15 * time.Minute

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Config       config.Config
	Store        *store.Store
	Subscription *subscription.Service
	Recovery     *recovery.Service
	Validator    controller.EmailValidator
	Inspector    verifier.Inspector
	Logger       *logrus.Logger
}

func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Use(middleware.CORS(middleware.CORSForOrigins(deps.Config.CORSAllowedOrigins)))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	SetupPublicRoutes(app, deps)
	SetupAdminRoutes(app, deps)
}

func SetupPublicRoutes(app *fiber.App, deps Dependencies) {
	subscriptionController := controller.NewSubscriptionController(
		deps.Subscription,
		subscription.Policy{MaskRejections: deps.Config.MaskRejections},
		deps.Config.TrustedIPHeaders,
		deps.Logger.WithField("component", "subscribe"),
	)

	api := app.Group("/api", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	api.Post("/subscribe", subscriptionController.Subscribe)
	api.Get("/unsubscribe", subscriptionController.Unsubscribe)
	api.Post("/unsubscribe", subscriptionController.Unsubscribe)
}

func SetupAdminRoutes(app *fiber.App, deps Dependencies) {
	authLogger := deps.Logger.WithField("component", "admin_auth")
	adminLogger := deps.Logger.WithField("component", "admin")

	authController := controller.NewAuthController(
		deps.Store,
		deps.Config.JWTSecret,
		deps.Config.AdminSessionTimeout,
		deps.Config.IsProduction(),
		authLogger,
	)
	adminController := controller.NewAdminController(
		deps.Store,
		deps.Recovery,
		deps.Validator,
		deps.Inspector,
		adminLogger,
	)

	admin := app.Group("/admin", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	admin.Post("/login", middleware.LoginRateLimiter(deps.Config.MaxLoginAttempts, loginWindow), authController.Login)

	protected := admin.Group("", middleware.AdminProtected(deps.Config.JWTSecret, deps.Store))
	protected.Post("/logout", authController.Logout)
	protected.Get("/me", authController.Me)
	protected.Get("/dashboard", adminController.Dashboard)

	rejected := protected.Group("/rejected")
	rejected.Get("/", adminController.ListRejected)
	rejected.Get("/stats", adminController.RejectionStats)
	rejected.Delete("/", adminController.ClearRejected)

	protected.Get("/subscribers/export", adminController.ExportSubscribers)

	rec := protected.Group("/recovery")
	rec.Post("/revalidate", adminController.Revalidate)
	rec.Post("/recover", adminController.Recover)
	rec.Post("/recover-all", adminController.RecoverAll)
	rec.Post("/recover-email", adminController.RecoverEmail)

	tools := protected.Group("/tools")
	tools.Post("/validate", adminController.ValidateEmail)
	tools.Get("/whois", adminController.Whois)

	authLogger.Info("Admin routes initialized successfully")
}
