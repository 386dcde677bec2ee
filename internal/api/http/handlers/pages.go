package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/web"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CSRFContextKey is where the csrf middleware leaves the token for templates.
const CSRFContextKey = "csrf"

// permissionKeys are exposed to templates as .Can.<key>.
var permissionKeys = map[string]auth.Action{
	"view_all":           auth.ActionViewAll,
	"view_assigned":      auth.ActionViewAssigned,
	"view_unassigned":    auth.ActionViewUnassigned,
	"change_status":      auth.ActionChangeStatus,
	"change_priority":    auth.ActionChangePriority,
	"change_assignee":    auth.ActionChangeAssignee,
	"delete":             auth.ActionDelete,
	"assign_any":         auth.ActionAssignAny,
	"assign_self":        auth.ActionAssignSelf,
	"create_with_status": auth.ActionCreateWithStatus,
	"create_on_behalf":   auth.ActionCreateOnBehalf,
	"assign_on_create":   auth.ActionAssignOnCreate,
}

// Pages renders HTML views with the data every page needs: the current
// user, pending flashes, the active-ticket badge and the CSRF token.
type Pages struct {
	sessions *auth.SessionManager
	tickets  *service.TicketService
	logger   *zap.Logger
}

// NewPages constructs the renderer.
func NewPages(sessions *auth.SessionManager, tickets *service.TicketService, logger *zap.Logger) *Pages {
	return &Pages{sessions: sessions, tickets: tickets, logger: logger}
}

// Render writes the named template inside the base layout.
func (p *Pages) Render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	user, _ := auth.CurrentUser(c)
	data["User"] = user
	data["CSRF"], _ = c.Locals(CSRFContextKey).(string)

	can := make(map[string]bool, len(permissionKeys))
	if user != nil {
		for key, action := range permissionKeys {
			can[key] = p.tickets.Allowed(user, action)
		}
		stats, err := p.tickets.ActiveTicketStats(c.UserContext())
		if err != nil {
			p.logger.Warn("active ticket stats unavailable", zap.Error(err))
		}
		data["Stats"] = stats
	}
	data["Can"] = can

	flashes, err := p.sessions.PopFlashes(c)
	if err != nil {
		p.logger.Warn("reading flashes failed", zap.Error(err))
	}
	data["Flashes"] = flashes

	return c.Status(status).Render(name, data, web.Layout)
}

// Flash queues a message and redirects to target.
func (p *Pages) Flash(c *fiber.Ctx, category, message, target string) error {
	if err := p.sessions.AddFlash(c, category, message); err != nil {
		p.logger.Warn("storing flash failed", zap.Error(err))
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Deny turns an authorization failure into a warning and a redirect to a
// page the user can see.
func (p *Pages) Deny(c *fiber.Ctx, err error, target string) error {
	message := "You do not have permission to perform this action."
	var de *apperrors.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}
	return p.Flash(c, auth.FlashWarning, message, target)
}

// Fail handles service errors for page handlers. Forbidden becomes a flash
// and redirect; everything else goes to the error handler.
func (p *Pages) Fail(c *fiber.Ctx, err error, target string) error {
	if apperrors.IsForbidden(err) {
		return p.Deny(c, err, target)
	}
	return err
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("login required")
	}
	return user, nil
}

// landingPath is where a user goes after logging in.
func landingPath(user *domain.User) string {
	if user != nil && user.Role == domain.RoleSupport {
		return "/assigned_tickets"
	}
	return "/all_tickets"
}

// safeNext accepts only local absolute paths, so a crafted next parameter
// cannot send the user to another site.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

func userMessage(err error) string {
	return apperrors.ToDomainError(err).Message
}
