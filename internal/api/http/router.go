package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/web"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Config         config.Config
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Profile        *handlers.ProfileHandler
	API            *handlers.APIHandler
	AuthMiddleware *auth.AuthMiddleware
	Sessions       *auth.SessionManager
	// Storage backs rate-limit counters; nil keeps them in process.
	Storage fiber.Storage
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Static("/static/uploads", cfg.Config.Upload.ProfileImageDir)
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	loginLimiter := limiter.New(limiter.Config{
		Max:        cfg.Config.Auth.LoginRateLimit,
		Expiration: cfg.Config.Auth.LoginRateWindow(),
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewRateLimited("Too many login attempts. Please try again later.")
		},
	})

	api := app.Group("/api/v1")
	api.Post("/token", loginLimiter, cfg.API.Token)
	bearer := api.Group("", cfg.AuthMiddleware.Bearer)
	bearer.Get("/tickets", cfg.API.ListTickets)
	bearer.Post("/tickets", cfg.API.CreateTicket)
	bearer.Get("/tickets/:id", cfg.API.GetTicket)
	bearer.Patch("/tickets/:id", cfg.API.UpdateTicket)
	bearer.Delete("/tickets/:id", cfg.API.DeleteTicket)
	bearer.Post("/tickets/:id/assign", cfg.API.AssignTicket)
	bearer.Get("/stats/active", cfg.API.ActiveStats)

	pages := app.Group("", cfg.AuthMiddleware.LoadSession)
	if cfg.Config.Session.CSRFEnabled {
		pages.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     cfg.Config.Session.CookieName + "_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.Config.Session.SecureCookies,
			CookieHTTPOnly: true,
			Expiration:     cfg.Config.Session.TTL(),
			Session:        cfg.Sessions.Store(),
			ContextKey:     handlers.CSRFContextKey,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return apperrors.NewForbidden("The form has expired or is invalid. Please reload the page and try again.")
			},
		}))
	}

	pages.Get("/", cfg.Auth.Index)
	pages.Get("/index", cfg.Auth.Index)
	pages.Get("/login", cfg.Auth.LoginPage)
	pages.Post("/login", loginLimiter, cfg.Auth.Login)
	pages.Get("/register", cfg.Auth.RegisterPage)
	pages.Post("/register", cfg.Auth.Register)
	pages.Get("/logout", cfg.Auth.Logout)

	protected := pages.Group("", cfg.AuthMiddleware.RequireLogin)
	protected.Get("/all_tickets", cfg.Tickets.List(service.ViewAll))
	protected.Get("/active_tickets", cfg.Tickets.List(service.ViewActive))
	protected.Get("/assigned_tickets", cfg.Tickets.List(service.ViewAssigned))
	protected.Get("/unassigned_tickets", cfg.Tickets.List(service.ViewUnassigned))
	protected.Post("/unassigned_tickets", cfg.Tickets.AssignFromQueue)
	protected.Get("/closed_tickets", cfg.Tickets.List(service.ViewClosed))

	protected.Get("/create_ticket", cfg.Tickets.CreatePage)
	protected.Post("/create_ticket", cfg.Tickets.Create)
	protected.Get("/ticket/:id", cfg.Tickets.Details)
	protected.Post("/ticket/:id", cfg.Tickets.Update)
	protected.Get("/ticket/:id/readonly", cfg.Tickets.Readonly)
	protected.Post("/delete_ticket/:id", cfg.Tickets.Delete)
	protected.Post("/update_status/:id", cfg.Tickets.UpdateStatus)
	protected.Post("/update_priority/:id", cfg.Tickets.UpdatePriority)
	protected.Post("/update_assignee/:id", cfg.Tickets.UpdateAssignee)
	protected.Get("/assign_ticket/:id", cfg.Tickets.AssignPage)
	protected.Post("/assign_ticket/:id", cfg.Tickets.Assign)

	protected.Get("/update_profile", cfg.Profile.Page)
	protected.Post("/update_profile", cfg.Profile.Update)
}
