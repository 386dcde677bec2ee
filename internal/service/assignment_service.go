package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AssignTicket hands a ticket to assigneeID. Admins may pick any staff
// member; support staff may only take unassigned tickets themselves.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("login required")
	}
	ticket, err := getTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}

	var assignee *domain.User
	switch {
	case s.Allowed(actor, auth.ActionAssignAny):
		if assigneeID == "" {
			return nil, apperrors.NewValidationError("No assignee selected.", map[string]any{"field": "assigned_to"})
		}
		assignee, err = lookupUser(ctx, s.users, assigneeID)
		if err != nil {
			return nil, err
		}
		if !assignee.IsStaff() {
			return nil, apperrors.NewValidationError("Invalid assignee selected.", map[string]any{"field": "assigned_to"})
		}
	case s.Allowed(actor, auth.ActionAssignSelf):
		if assigneeID != "" && assigneeID != actor.ID {
			return nil, apperrors.NewForbidden("Only admins can assign tickets to someone else.")
		}
		if ticket.IsAssigned() && !ticket.AssignedTo(actor.ID) {
			return nil, apperrors.NewForbidden("This ticket is already assigned.")
		}
		assignee = actor
	default:
		return nil, apperrors.NewForbidden("Only admins can assign tickets.")
	}

	now := s.now()
	comments := ticket.SetAssignee(assignee, actor.ID, now)
	if len(comments) == 0 {
		return ticket, nil
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket, comments); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("assignee_id", assignee.ID),
		zap.String("actor_id", actor.ID))
	s.events.publish(ctx, assignedEvent(ticket, actor, assignee))
	return ticket, nil
}

func assignedEvent(ticket *domain.Ticket, actor, assignee *domain.User) events.Event {
	payload := events.TicketAssignedPayload{AssigneeID: ticket.AssigneeID}
	if assignee != nil {
		payload.AssigneeName = assignee.Name
	}
	return events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    events.ActorFor(actor),
		Payload:  payload,
	}
}
