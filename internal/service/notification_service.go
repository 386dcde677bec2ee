package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NotificationService e-mails people affected by ticket events.
type NotificationService struct {
	dispatcher events.Dispatcher
	tickets    repository.TicketRepository
	users      repository.UserRepository
	mailer     mail.Mailer
	logger     *zap.Logger
	baseURL    string
}

// NotificationDependencies bundles collaborators for notifications.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Mailer     mail.Mailer
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.AppConfig, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		mailer:     deps.Mailer,
		logger:     loggerOrNop(deps.Logger),
		baseURL:    cfg.BaseURL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	_ = n.logEvent(ctx, event)
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeID == nil || *payload.AssigneeID == event.Actor.UserID {
		return nil
	}
	return n.notifyUser(ctx, *payload.AssigneeID, event.TicketID, "Ticket assigned to you",
		"A ticket has been assigned to you.")
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	_ = n.logEvent(ctx, event)
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	if ticket.CreatorID == event.Actor.UserID {
		return nil
	}
	return n.notifyUser(ctx, ticket.CreatorID, event.TicketID,
		fmt.Sprintf("Ticket status changed to %s", payload.NewStatus),
		fmt.Sprintf("The status of your ticket changed from %s to %s.", payload.OldStatus, payload.NewStatus))
}

func (n *NotificationService) notifyUser(ctx context.Context, userID, ticketID, subject, text string) error {
	if n.mailer == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load recipient %s: %w", userID, err)
	}
	link := fmt.Sprintf("%s/ticket/%s", n.baseURL, ticketID)
	return n.mailer.Send(ctx, mail.Message{
		To:        user.Email,
		Subject:   subject,
		PlainBody: fmt.Sprintf("Hello %s,\n\n%s\n\n%s\n", user.Name, text, link),
	})
}
