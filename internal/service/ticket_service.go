package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// DuplicateWindow is how long an identical title from the same creator is
// rejected as a duplicate.
const DuplicateWindow = 60 * time.Second

// TicketView names a ticket listing.
type TicketView string

const (
	ViewAll        TicketView = "all"
	ViewActive     TicketView = "active"
	ViewAssigned   TicketView = "assigned"
	ViewUnassigned TicketView = "unassigned"
	ViewClosed     TicketView = "closed"
)

// ParseTicketView maps a query value to a view, defaulting to ViewAll.
func ParseTicketView(v string) (TicketView, bool) {
	switch TicketView(v) {
	case "", ViewAll:
		return ViewAll, true
	case ViewActive, ViewAssigned, ViewUnassigned, ViewClosed:
		return TicketView(v), true
	}
	return "", false
}

var activeStatuses = []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	authz    *auth.Authorizer
	events   eventPublisher
	logger   *zap.Logger
	now      Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Authorizer  *auth.Authorizer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
}

// TicketCreateInput describes ticket creation payload. Empty optional fields
// fall back to defaults.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Status      domain.TicketStatus
	CreatorID   string
	AssigneeID  string
}

// TicketChanges lists the fields an update touches; nil means untouched.
// An empty AssigneeID unassigns the ticket.
type TicketChanges struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssigneeID *string
	Comment    string
}

// UpdateResult reports what an update did.
type UpdateResult struct {
	Ticket   *domain.Ticket
	Comments []domain.Comment
	// Denied lists the requested changes the actor was not allowed to make.
	Denied []auth.Action
}

// Changed reports whether anything was persisted.
func (r *UpdateResult) Changed() bool {
	return len(r.Comments) > 0
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	domain.Comment
	AuthorName string
}

// TicketDetail is a ticket with its people and thread resolved.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Creator  *domain.User
	Assignee *domain.User
	Comments []CommentView
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := loggerOrNop(deps.Logger)
	now := clockOrNow(deps.Clock)
	return &TicketService{
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		users:    deps.UserRepo,
		authz:    deps.Authorizer,
		events:   eventPublisher{dispatcher: deps.Dispatcher, logger: logger, now: now},
		logger:   logger,
		now:      now,
	}
}

// Allowed reports whether actor's role permits action.
func (s *TicketService) Allowed(actor *domain.User, action auth.Action) bool {
	return actor != nil && s.authz.Allowed(actor.Role, action)
}

// CreateTicket validates input and stores a new ticket on behalf of actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("login required")
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if err := domain.ValidateTitle(title); err != nil {
		return nil, validationError(err)
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, validationError(err)
	}
	if err := domain.ValidatePriority(input.Priority); err != nil {
		return nil, validationError(err)
	}

	status := domain.TicketStatusOpen
	if s.Allowed(actor, auth.ActionCreateWithStatus) && input.Status != "" {
		if err := domain.ValidateStatus(input.Status); err != nil {
			return nil, validationError(err)
		}
		status = input.Status
	}

	creator := actor
	if input.CreatorID != "" && input.CreatorID != actor.ID && s.Allowed(actor, auth.ActionCreateOnBehalf) {
		user, err := lookupUser(ctx, s.users, input.CreatorID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperrors.NewValidationError("Invalid user selected.", map[string]any{"field": "user_id"})
		}
		creator = user
	}

	var assigneeID *string
	switch {
	case input.AssigneeID == "":
	case s.Allowed(actor, auth.ActionAssignOnCreate):
		user, err := lookupUser(ctx, s.users, input.AssigneeID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, apperrors.NewValidationError("Invalid user selected for assignment.", map[string]any{"field": "assigned_to"})
		}
		assigneeID = &user.ID
	case input.AssigneeID == actor.ID && s.Allowed(actor, auth.ActionAssignSelf):
		assigneeID = &actor.ID
	}

	now := s.now()
	if err := s.checkDuplicate(ctx, actor.ID, title, now); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    input.Priority,
		CreatorID:   creator.ID,
		AssigneeID:  assigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("creator_id", ticket.CreatorID),
		zap.String("actor_id", actor.ID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFor(actor),
		Payload: events.TicketCreatedPayload{
			CreatorID:  ticket.CreatorID,
			AssigneeID: ticket.AssigneeID,
			Priority:   ticket.Priority,
			Status:     ticket.Status,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// checkDuplicate rejects a title the actor already used for one of their own
// tickets within DuplicateWindow. Tickets filed on someone else's behalf are
// not the actor's own.
func (s *TicketService) checkDuplicate(ctx context.Context, actorID, title string, now time.Time) error {
	recent, err := s.tickets.FindLatestByCreatorAndTitle(ctx, actorID, title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if now.Sub(recent.CreatedAt) < DuplicateWindow {
		return apperrors.NewValidationError(
			"A similar ticket was created within the last minute. Please wait before creating a new one.",
			map[string]any{"reason": "duplicate", "ticket_id": recent.ID},
		)
	}
	return nil
}

// UpdateTicket applies the permitted subset of changes and records one audit
// comment per changed field, plus the free-text comment if any.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, changes TicketChanges) (*UpdateResult, error) {
	if changes.Status != nil {
		if err := domain.ValidateStatus(*changes.Status); err != nil {
			return nil, validationError(err)
		}
	}
	if changes.Priority != nil {
		if err := domain.ValidatePriority(*changes.Priority); err != nil {
			return nil, validationError(err)
		}
	}

	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &UpdateResult{Ticket: ticket}
	oldStatus, oldPriority := ticket.Status, ticket.Priority
	var assignee *domain.User
	assigneeChanged := false
	permitted := 0

	if changes.Status != nil {
		if s.Allowed(actor, auth.ActionChangeStatus) {
			permitted++
			result.Comments = append(result.Comments, ticket.SetStatus(*changes.Status, actor.ID, now)...)
		} else {
			result.Denied = append(result.Denied, auth.ActionChangeStatus)
		}
	}
	if changes.Priority != nil {
		if s.Allowed(actor, auth.ActionChangePriority) {
			permitted++
			result.Comments = append(result.Comments, ticket.SetPriority(*changes.Priority, actor.ID, now)...)
		} else {
			result.Denied = append(result.Denied, auth.ActionChangePriority)
		}
	}
	if changes.AssigneeID != nil {
		if s.Allowed(actor, auth.ActionChangeAssignee) {
			permitted++
			if *changes.AssigneeID != "" {
				assignee, err = lookupUser(ctx, s.users, *changes.AssigneeID)
				if err != nil {
					return nil, err
				}
				if assignee == nil {
					return nil, apperrors.NewValidationError("Invalid assignee selected.", map[string]any{"field": "assignee"})
				}
			}
			audit := ticket.SetAssignee(assignee, actor.ID, now)
			assigneeChanged = len(audit) > 0
			result.Comments = append(result.Comments, audit...)
		} else {
			result.Denied = append(result.Denied, auth.ActionChangeAssignee)
		}
	}

	remark := strings.TrimSpace(changes.Comment)
	if remark != "" {
		result.Comments = append(result.Comments, domain.Comment{
			TicketID:  ticket.ID,
			AuthorID:  actor.ID,
			Body:      remark,
			CreatedAt: now,
		})
	}

	if permitted == 0 && remark == "" && len(result.Denied) > 0 {
		return nil, apperrors.NewForbidden("You do not have permission to update this ticket.")
	}
	if !result.Changed() {
		return result, nil
	}
	// Comments of one update share a clock reading; spread them a microsecond
	// apart so created_at alone keeps them in the order they were produced.
	for i := range result.Comments {
		result.Comments[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
	}

	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket, result.Comments); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	actorRef := events.ActorFor(actor)
	if ticket.Status != oldStatus {
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actorRef,
			Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: ticket.Status},
		})
	}
	if ticket.Priority != oldPriority {
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: ticket.ID,
			Actor:    actorRef,
			Payload:  events.TicketPriorityChangedPayload{OldPriority: oldPriority, NewPriority: ticket.Priority},
		})
	}
	if assigneeChanged {
		s.events.publish(ctx, assignedEvent(ticket, actor, assignee))
	}
	if remark != "" {
		last := result.Comments[len(result.Comments)-1]
		s.events.publish(ctx, events.Event{
			Type:     events.EventTicketCommentAdded,
			TicketID: ticket.ID,
			Actor:    actorRef,
			Payload: events.TicketCommentAddedPayload{
				CommentID:   last.ID,
				AuthorID:    last.AuthorID,
				BodyPreview: stringPreview(last.Body, 120),
			},
		})
	}
	return result, nil
}

// DeleteTicket removes a ticket and its comments.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := getTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return err
	}
	if !s.Allowed(actor, auth.ActionDelete) {
		return apperrors.NewForbidden("You do not have permission to delete this ticket.")
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.MapError(err)
	}

	s.logger.Info("ticket deleted", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.ID))
	s.events.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    events.ActorFor(actor),
		Payload:  events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// ListTickets returns the tickets visible to actor in view, most recently
// updated first.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, view TicketView) ([]domain.Ticket, error) {
	filter, err := s.viewFilter(actor, view)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func (s *TicketService) viewFilter(actor *domain.User, view TicketView) (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	if actor == nil {
		return filter, apperrors.NewUnauthorized("login required")
	}
	own := actor.ID

	switch view {
	case ViewAll, ViewActive:
		if !s.Allowed(actor, auth.ActionViewAll) {
			filter.CreatorID = &own
		}
		if view == ViewActive {
			filter.Statuses = activeStatuses
		}
	case ViewAssigned:
		if !s.Allowed(actor, auth.ActionViewAssigned) {
			return filter, apperrors.NewForbidden("Only support staff and admins can view this page.")
		}
		assigned := true
		filter.Assigned = &assigned
		filter.Statuses = activeStatuses
		if !s.Allowed(actor, auth.ActionViewOthersAssigned) {
			filter.AssigneeID = &own
		}
	case ViewUnassigned:
		if !s.Allowed(actor, auth.ActionViewUnassigned) {
			return filter, apperrors.NewForbidden("Only support staff and admins can view this page.")
		}
		unassigned := false
		filter.Assigned = &unassigned
	case ViewClosed:
		filter.Statuses = []domain.TicketStatus{domain.TicketStatusClosed}
		switch {
		case s.Allowed(actor, auth.ActionViewOthersAssigned):
		case s.Allowed(actor, auth.ActionViewAssigned):
			filter.AssigneeID = &own
		default:
			filter.CreatorID = &own
		}
	default:
		return filter, apperrors.NewValidationError("Unknown ticket view.", map[string]any{"view": string(view)})
	}
	return filter, nil
}

// GetTicket loads a ticket with its thread for actor.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*TicketDetail, error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	detail := &TicketDetail{Ticket: ticket}
	names := map[string]*domain.User{}
	resolve := func(id string) (*domain.User, error) {
		if user, ok := names[id]; ok {
			return user, nil
		}
		user, err := lookupUser(ctx, s.users, id)
		if err != nil {
			return nil, err
		}
		names[id] = user
		return user, nil
	}

	if detail.Creator, err = resolve(ticket.CreatorID); err != nil {
		return nil, err
	}
	if ticket.IsAssigned() {
		if detail.Assignee, err = resolve(*ticket.AssigneeID); err != nil {
			return nil, err
		}
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, comment := range comments {
		view := CommentView{Comment: comment, AuthorName: "Unknown user"}
		author, err := resolve(comment.AuthorID)
		if err != nil {
			return nil, err
		}
		if author != nil {
			view.AuthorName = author.Name
		}
		detail.Comments = append(detail.Comments, view)
	}
	return detail, nil
}

// visibleTicket loads the ticket and checks actor may see it.
func (s *TicketService) visibleTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("login required")
	}
	ticket, err := getTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != actor.ID && !s.Allowed(actor, auth.ActionViewAny) {
		return nil, apperrors.NewForbidden("You do not have permission to view this ticket.")
	}
	return ticket, nil
}

// ActiveTicketStats counts open and in-progress tickets for the navigation badge.
func (s *TicketService) ActiveTicketStats(ctx context.Context) (domain.ActiveTicketStats, error) {
	count, err := s.tickets.Count(ctx, repository.TicketFilter{Statuses: activeStatuses})
	if err != nil {
		return domain.ActiveTicketStats{}, apperrors.MapError(err)
	}
	return domain.NewActiveTicketStats(count), nil
}

// ListUsers returns every account, for choosing a creator on behalf of someone.
func (s *TicketService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListStaff returns the users tickets can be assigned to.
func (s *TicketService) ListStaff(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, domain.RoleAdmin, domain.RoleSupport)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}
