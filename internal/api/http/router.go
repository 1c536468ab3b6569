package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/notes-service/internal/api/http/handlers"
	"github.com/spec-kit/notes-service/internal/auth"
	"github.com/spec-kit/notes-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Notes          *handlers.NotesHandler
	AuthMiddleware *auth.Middleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	userGroup := app.Group("/user")
	userGroup.Post("/signup", cfg.Auth.Signup)
	userGroup.Post("/verify-otp", cfg.Auth.VerifyOTP)
	userGroup.Post("/login", cfg.Auth.Login)
	userGroup.Post("/verify-login-otp", cfg.Auth.VerifyLoginOTP)

	userGroup.Get("/google", cfg.Auth.GoogleLogin)
	userGroup.Get("/google/callback", cfg.Auth.GoogleCallback)

	userGroup.Get("/profile", cfg.AuthMiddleware.Handle, cfg.Auth.Profile)

	notesGroup := userGroup.Group("/notes", cfg.AuthMiddleware.Handle)
	notesGroup.Get("/all-note", cfg.Notes.List)
	notesGroup.Post("/write-note", cfg.Notes.Create)
	notesGroup.Put("/update-note/:id", cfg.Notes.Update)
	notesGroup.Delete("/delete-note/:id", cfg.Notes.Delete)
}
