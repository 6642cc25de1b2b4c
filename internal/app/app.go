package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"engagement/internal/handlers"
	"engagement/internal/mail"
	u "engagement/internal/utils"
)

// Deps are the collaborators the HTTP surface is wired to. Redis and
// Journal are optional.
type Deps struct {
	Config   u.Config
	Composer handlers.Composer
	Mailer   mail.Mailer
	Redis    *redis.Client
	Journal  *u.Journal
}

// SetupApp creates and configures a new Fiber app instance
func SetupApp(deps Deps) *fiber.App {
	cfg := deps.Config
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	store := NewRateLimitStore(cfg)
	RegisterMiddleware(app, cfg)
	RegisterRoutes(app, deps, store)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, deps Deps, store fiber.Storage) {
	var journal handlers.Recorder
	if deps.Journal != nil {
		journal = deps.Journal
	}
	svc := handlers.NewSubmissionService(deps.Config, deps.Composer, deps.Mailer, deps.Redis, journal)
	limit := userRateLimitMiddleware(deps.Config, store)

	// The form posts to /submit; /v1/submit is the versioned alias.
	app.Post("/submit", limit, svc.HandleSubmit)

	v1 := app.Group("/v1")
	v1.Post("/submit", limit, svc.HandleSubmit)
	v1.Get("/monitor", monitor.New())
}
