package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// APIHandler exposes the ticket workflows as JSON for bearer-token clients.
type APIHandler struct {
	auth    *service.AuthService
	tickets *service.TicketService
}

// NewAPIHandler constructs handler.
func NewAPIHandler(authService *service.AuthService, ticketService *service.TicketService) *APIHandler {
	return &APIHandler{auth: authService, tickets: ticketService}
}

// Token handles POST /api/v1/token.
func (h *APIHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateStruct(req); err != nil {
		return err
	}
	user, token, exp, err := h.auth.IssueToken(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: token, ExpiresAt: exp, User: userResponse(user)}})
}

// ListTickets handles GET /api/v1/tickets?view=.
func (h *APIHandler) ListTickets(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, ok := service.ParseTicketView(c.Query("view"))
	if !ok {
		return apperrors.NewValidationError("Unknown ticket view.", map[string]any{"view": c.Query("view")})
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), user, view)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTicket handles POST /api/v1/tickets.
func (h *APIHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateStruct(req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		Status:      domain.TicketStatus(req.Status),
		CreatorID:   req.UserID,
		AssigneeID:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// GetTicket handles GET /api/v1/tickets/:id.
func (h *APIHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateTicket handles PATCH /api/v1/tickets/:id.
func (h *APIHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.ValidateStruct(req); err != nil {
		return err
	}
	changes := service.TicketChanges{AssigneeID: req.AssigneeID, Comment: req.Comment}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		changes.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		changes.Priority = &priority
	}

	result, err := h.tickets.UpdateTicket(c.UserContext(), user, c.Params("id"), changes)
	if err != nil {
		return err
	}
	resp := dto.UpdateTicketResponse{
		Ticket:   ticketSummary(result.Ticket),
		Comments: make([]dto.CommentResponse, 0, len(result.Comments)),
		Denied:   make([]string, 0, len(result.Denied)),
	}
	for _, comment := range result.Comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: user.Name,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	for _, action := range result.Denied {
		resp.Denied = append(resp.Denied, string(action))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DeleteTicket handles DELETE /api/v1/tickets/:id.
func (h *APIHandler) DeleteTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AssignTicket handles POST /api/v1/tickets/:id/assign.
func (h *APIHandler) AssignTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.AssignTicket(c.UserContext(), user, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ActiveStats handles GET /api/v1/stats/active.
func (h *APIHandler) ActiveStats(c *fiber.Ctx) error {
	stats, err := h.tickets.ActiveTicketStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ActiveStatsResponse{
		Count: stats.Count,
		Tier:  string(stats.Tier),
		Class: stats.BadgeClass(),
	}})
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		CreatorID:  ticket.CreatorID,
		AssigneeID: ticket.AssigneeID,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, dto.CommentResponse{
			ID:         comment.ID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Body:       comment.Body,
			CreatedAt:  comment.CreatedAt,
		})
	}
	resp := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(detail.Ticket),
		Description:   detail.Ticket.Description,
		Comments:      comments,
	}
	if detail.Creator != nil {
		creator := userResponse(detail.Creator)
		resp.Creator = &creator
	}
	if detail.Assignee != nil {
		assignee := userResponse(detail.Assignee)
		resp.Assignee = &assignee
	}
	return resp
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         string(user.Role),
		ProfileImage: user.ProfileImage,
	}
}
