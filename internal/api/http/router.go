package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/techcollege/referral-service/internal/api/http/handlers"
	"github.com/techcollege/referral-service/internal/auth"
	"github.com/techcollege/referral-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Staff          *handlers.StaffHandler
	Trainees       *handlers.TraineesHandler
	Referrals      *handlers.ReferralsHandler
	Stream         *handlers.StreamHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	app.Post("/auth/login", cfg.Auth.Login)

	if cfg.Stream != nil {
		app.Get("/stream", cfg.AuthMiddleware.WithQueryToken().Handle, auth.RequireAnyRole(), cfg.Stream.Stream)
	}

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	protected.Get("/me", cfg.Auth.Me)
	protected.Put("/me/password", cfg.Auth.ChangePassword)
	protected.Put("/me/messaging-handle", cfg.Auth.SetMessagingHandle)

	protected.Get("/staff", cfg.Staff.List)
	heads := protected.Group("/staff", auth.RequireDepartmentHead())
	heads.Post("", cfg.Staff.Create)
	heads.Put("/:id/counselor", cfg.Staff.SetCounselor)
	heads.Post("/:id/password/reset", cfg.Staff.ResetPassword)
	heads.Delete("/:id", cfg.Staff.Delete)

	protected.Get("/trainees", cfg.Trainees.List)
	protected.Get("/trainees/:trainingNumber", cfg.Trainees.Get)
	protected.Post("/trainees/import", auth.RequireDepartmentHead(), cfg.Trainees.Import)

	protected.Get("/referrals", cfg.Referrals.List)
	protected.Post("/referrals", cfg.Referrals.Create)
	protected.Get("/referrals/:id", cfg.Referrals.Get)
	protected.Post("/referrals/:id/actions", cfg.Referrals.Act)
	protected.Put("/referrals/:id/advisory", cfg.Referrals.AttachAdvisory)
}
