package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-progress-api/internal/config"
	"github.com/noah-isme/gema-progress-api/internal/handler"
	"github.com/noah-isme/gema-progress-api/internal/middleware"
	"github.com/noah-isme/gema-progress-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TargetHandler     *handler.TargetHandler
	StatusHandler     *handler.StatusHandler
	SubmissionHandler *handler.SubmissionHandler
	GradingHandler    *handler.GradingHandler
	FeedbackHandler   *handler.FeedbackHandler
	ActivityHandler   *handler.AdminActivityHandler
	HealthChecks      map[string]handler.HealthCheckFunc
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	v2 := app.Group("/api/v2", jwtMiddleware)
	anyRole := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleCoach, middleware.RoleLearner)

	if deps.StatusHandler != nil {
		deps.StatusHandler.Register(v2.Group("/targets", anyRole))
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(v2.Group("/submissions", anyRole))
	}

	admin := v2.Group("/admin", middleware.RequireRole(middleware.RoleAdmin, middleware.RoleCoach))

	if deps.TargetHandler != nil {
		deps.TargetHandler.Register(admin.Group("/targets", middleware.RequireRole(middleware.RoleAdmin)))
	}

	submissions := admin.Group("/submissions", middleware.RateLimit("review", cfg.GradingRateLimit, reviewWindow(cfg)))
	if deps.GradingHandler != nil {
		deps.GradingHandler.Register(submissions)
	}
	if deps.FeedbackHandler != nil {
		deps.FeedbackHandler.Register(submissions)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(admin.Group("/activity"))
	}
}

func reviewWindow(cfg config.Config) time.Duration {
	if cfg.GradingRateWindow <= 0 {
		return time.Minute
	}
	return cfg.GradingRateWindow
}
