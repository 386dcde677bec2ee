// Package app builds the helpdesk from configuration: storage, services,
// background workers and the HTTP server. One App is created at startup and
// closed at exit; tests create their own.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/media"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/render"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/web"
	"github.com/spec-kit/helpdesk/internal/worker"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const mailQueueSize = 128

// Options override collaborators, mostly for tests.
type Options struct {
	Clock  service.Clock
	Mailer mail.Mailer
}

// App owns every long-lived collaborator.
type App struct {
	Config config.Config
	Logger *zap.Logger

	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	// Memory is set when no database is configured.
	Memory *memory.Store

	Users    repository.UserRepository
	Tickets  repository.TicketRepository
	Comments repository.CommentRepository

	Dispatcher    events.Dispatcher
	Authorizer    *auth.Authorizer
	Sessions      *auth.SessionManager
	AuthService   *service.AuthService
	TicketService *service.TicketService
	Notifications *service.NotificationService
	MailQueue     *worker.MailQueue
	Metrics       *observability.Metrics

	HTTP *fiber.App
}

// New connects to the configured backends and wires the application.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	a.Postgres = pg
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		pool := pg.PoolHandle()
		a.Users = repository.NewUserRepository(pool)
		a.Tickets = repository.NewTicketRepository(pool)
		a.Comments = repository.NewCommentRepository(pool)
	} else {
		a.Memory = memory.New()
		a.Users = a.Memory.Users()
		a.Tickets = a.Memory.Tickets()
		a.Comments = a.Memory.Comments()
	}

	a.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)
	var storage fiber.Storage
	if a.Redis.Reachable() {
		storage = persistence.NewRedisStorage(a.Redis, cfg.Redis.KeyPrefix)
	}

	a.Authorizer, err = auth.NewAuthorizer()
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Dispatcher = events.NewInMemoryDispatcher()
	a.Sessions = auth.NewSessionManager(cfg.Session, storage)

	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.New(cfg.Notification, logger)
	}
	a.MailQueue = worker.NewMailQueue(mailer, mailQueueSize, logger)
	a.MailQueue.Start()

	a.AuthService = service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: a.Users,
		Images:   media.NewProfileImages(cfg.Upload.ProfileImageDir, cfg.Upload.ProfileImageSize),
		Logger:   logger,
		Clock:    opts.Clock,
	})
	a.TicketService = service.NewTicketService(service.TicketDependencies{
		TicketRepo:  a.Tickets,
		CommentRepo: a.Comments,
		UserRepo:    a.Users,
		Authorizer:  a.Authorizer,
		Dispatcher:  a.Dispatcher,
		Logger:      logger,
		Clock:       opts.Clock,
	})
	a.Notifications = service.NewNotificationService(cfg.App, service.NotificationDependencies{
		Dispatcher: a.Dispatcher,
		TicketRepo: a.Tickets,
		UserRepo:   a.Users,
		Mailer:     a.MailQueue,
		Logger:     logger,
	})
	a.Notifications.RegisterHandlers()

	a.HTTP = a.newHTTP(storage)
	return a, nil
}

func (a *App) newHTTP(storage fiber.Storage) *fiber.App {
	cfg := a.Config
	server := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 web.NewEngine(render.NewMarkdown()),
		BodyLimit:             cfg.Upload.MaxBodyBytes,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})

	pages := handlers.NewPages(a.Sessions, a.TicketService, a.Logger)
	httptransport.RegisterMiddlewares(server, a.Logger, a.Metrics, pages, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Config:         cfg,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, a.Postgres, a.Redis, a.Metrics),
		Auth:           handlers.NewAuthHandler(pages, a.AuthService, a.Sessions, a.Logger),
		Tickets:        handlers.NewTicketsHandler(pages, a.TicketService),
		Profile:        handlers.NewProfileHandler(pages, a.AuthService, a.Sessions),
		API:            handlers.NewAPIHandler(a.AuthService, a.TicketService),
		AuthMiddleware: auth.NewAuthMiddleware(a.AuthService.TokenManager(), a.Sessions, a.Users),
		Sessions:       a.Sessions,
		Storage:        storage,
	})
	return server
}

// Close stops the HTTP server and background work and releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.HTTP != nil {
		if err := a.HTTP.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MailQueue != nil {
		if err := a.MailQueue.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.Redis.Close()
	a.Postgres.Close()
	return errors.Join(errs...)
}

// ShutdownTimeout bounds how long Close may wait for in-flight work.
const ShutdownTimeout = 10 * time.Second
