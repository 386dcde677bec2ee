package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var viewTitles = map[service.TicketView]string{
	service.ViewAll:        "All tickets",
	service.ViewActive:     "Active tickets",
	service.ViewAssigned:   "Assigned tickets",
	service.ViewUnassigned: "Unassigned tickets",
	service.ViewClosed:     "Closed tickets",
}

// TicketsHandler serves the ticket pages.
type TicketsHandler struct {
	pages   *Pages
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(pages *Pages, ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{pages: pages, service: ticketService}
}

// List returns the handler for one of the ticket listings.
func (h *TicketsHandler) List(view service.TicketView) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := currentUser(c)
		if err != nil {
			return err
		}
		tickets, err := h.service.ListTickets(c.UserContext(), user, view)
		if err != nil {
			return h.pages.Fail(c, err, "/all_tickets")
		}
		data := fiber.Map{
			"Title":   viewTitles[view],
			"Tickets": tickets,
		}
		if view == service.ViewUnassigned {
			data["QueueAssign"] = h.service.Allowed(user, auth.ActionAssignSelf)
			if h.service.Allowed(user, auth.ActionAssignAny) {
				staff, err := h.service.ListStaff(c.UserContext())
				if err != nil {
					return err
				}
				data["Staff"] = staff
			}
		}
		return h.pages.Render(c, fiber.StatusOK, "tickets/list", data)
	}
}

// AssignFromQueue handles POST /unassigned_tickets.
func (h *TicketsHandler) AssignFromQueue(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	ticket, err := h.service.AssignTicket(c.UserContext(), user, req.TicketID, req.AssigneeID)
	if err != nil {
		return h.flashFailure(c, err, "/unassigned_tickets")
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Ticket “"+ticket.Title+"” assigned.", "/unassigned_tickets")
}

// CreatePage handles GET /create_ticket.
func (h *TicketsHandler) CreatePage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	form := dto.CreateTicketRequest{
		Priority: string(domain.TicketPriorityMedium),
		Status:   string(domain.TicketStatusOpen),
	}
	return h.renderCreate(c, user, fiber.StatusOK, form, "")
}

// Create handles POST /create_ticket.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form dto.CreateTicketRequest
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		Title:       form.Title,
		Description: form.Description,
		Priority:    domain.TicketPriority(form.Priority),
		Status:      domain.TicketStatus(form.Status),
		CreatorID:   form.UserID,
		AssigneeID:  form.AssignedTo,
	})
	if err != nil {
		if apperrors.IsUserFacing(err) {
			return h.renderCreate(c, user, fiber.StatusBadRequest, form, userMessage(err))
		}
		return err
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Ticket created successfully.", "/ticket/"+ticket.ID)
}

func (h *TicketsHandler) renderCreate(c *fiber.Ctx, user *domain.User, status int, form dto.CreateTicketRequest, message string) error {
	data := fiber.Map{
		"Title":      "New ticket",
		"Form":       form,
		"Error":      message,
		"Priorities": domain.TicketPriorities,
		"Statuses":   domain.TicketStatuses,
	}
	if h.service.Allowed(user, auth.ActionCreateOnBehalf) {
		users, err := h.service.ListUsers(c.UserContext())
		if err != nil {
			return err
		}
		data["Users"] = users
	}
	if h.service.Allowed(user, auth.ActionAssignOnCreate) {
		staff, err := h.service.ListStaff(c.UserContext())
		if err != nil {
			return err
		}
		data["Staff"] = staff
	}
	return h.pages.Render(c, status, "tickets/create", data)
}

// Details handles GET /ticket/:id.
func (h *TicketsHandler) Details(c *fiber.Ctx) error {
	return h.renderDetails(c, false)
}

// Readonly handles GET /ticket/:id/readonly.
func (h *TicketsHandler) Readonly(c *fiber.Ctx) error {
	return h.renderDetails(c, true)
}

func (h *TicketsHandler) renderDetails(c *fiber.Ctx, readonly bool) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return h.pages.Fail(c, err, "/all_tickets")
	}
	data := fiber.Map{
		"Title":      detail.Ticket.Title,
		"Detail":     detail,
		"Readonly":   readonly,
		"Statuses":   domain.TicketStatuses,
		"Priorities": domain.TicketPriorities,
	}
	if !readonly && h.service.Allowed(user, auth.ActionChangeAssignee) {
		staff, err := h.service.ListStaff(c.UserContext())
		if err != nil {
			return err
		}
		data["Staff"] = staff
	}
	return h.pages.Render(c, fiber.StatusOK, "tickets/details", data)
}

// Update handles POST /ticket/:id from the details form. Only the fields the
// user may change are rendered, so only those are read back.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var form dto.TicketDetailsForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}
	changes := service.TicketChanges{Comment: form.Comment}
	if form.Status != "" {
		status := domain.TicketStatus(form.Status)
		changes.Status = &status
	}
	if form.Priority != "" {
		priority := domain.TicketPriority(form.Priority)
		changes.Priority = &priority
	}
	if h.service.Allowed(user, auth.ActionChangeAssignee) && formHas(c, "assigned_to") {
		assignee := form.AssignedTo
		changes.AssigneeID = &assignee
	}
	return h.applyUpdate(c, user, changes)
}

// UpdateStatus handles POST /update_status/:id.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	status := domain.TicketStatus(c.FormValue("status"))
	return h.applyUpdate(c, user, service.TicketChanges{Status: &status})
}

// UpdatePriority handles POST /update_priority/:id.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	priority := domain.TicketPriority(c.FormValue("priority"))
	return h.applyUpdate(c, user, service.TicketChanges{Priority: &priority})
}

// UpdateAssignee handles POST /update_assignee/:id.
func (h *TicketsHandler) UpdateAssignee(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	assignee := c.FormValue("assigned_to")
	return h.applyUpdate(c, user, service.TicketChanges{AssigneeID: &assignee})
}

func (h *TicketsHandler) applyUpdate(c *fiber.Ctx, user *domain.User, changes service.TicketChanges) error {
	id := c.Params("id")
	target := "/ticket/" + id
	result, err := h.service.UpdateTicket(c.UserContext(), user, id, changes)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return h.flashFailure(c, err, target)
	}
	if len(result.Denied) > 0 {
		_ = h.pages.sessions.AddFlash(c, auth.FlashWarning, "You do not have permission to make some of these changes.")
	}
	if !result.Changed() {
		return h.pages.Flash(c, auth.FlashInfo, "No changes were made.", target)
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Ticket updated successfully.", target)
}

// AssignPage handles GET /assign_ticket/:id.
func (h *TicketsHandler) AssignPage(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if !h.service.Allowed(user, auth.ActionAssignSelf) {
		return h.pages.Deny(c, apperrors.NewForbidden("Only admins can assign tickets."), "/all_tickets")
	}
	detail, err := h.service.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return h.pages.Fail(c, err, "/all_tickets")
	}
	data := fiber.Map{"Title": "Assign ticket", "Ticket": detail.Ticket}
	if h.service.Allowed(user, auth.ActionAssignAny) {
		staff, err := h.service.ListStaff(c.UserContext())
		if err != nil {
			return err
		}
		data["Staff"] = staff
	}
	return h.pages.Render(c, fiber.StatusOK, "tickets/assign", data)
}

// Assign handles POST /assign_ticket/:id.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if _, err := h.service.AssignTicket(c.UserContext(), user, id, c.FormValue("assigned_to")); err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return h.flashFailure(c, err, "/assign_ticket/"+id)
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Ticket assigned successfully.", "/ticket/"+id)
}

// Delete handles POST /delete_ticket/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.service.DeleteTicket(c.UserContext(), user, id); err != nil {
		return h.pages.Fail(c, err, "/ticket/"+id)
	}
	return h.pages.Flash(c, auth.FlashSuccess, "Ticket deleted successfully.", "/all_tickets")
}

// flashFailure reports user-correctable and permission errors as flashes.
func (h *TicketsHandler) flashFailure(c *fiber.Ctx, err error, target string) error {
	switch {
	case apperrors.IsForbidden(err):
		return h.pages.Deny(c, err, target)
	case apperrors.IsUserFacing(err):
		return h.pages.Flash(c, auth.FlashDanger, userMessage(err), target)
	}
	return err
}

func formHas(c *fiber.Ctx, key string) bool {
	if c.Request().PostArgs().Has(key) {
		return true
	}
	form, err := c.MultipartForm()
	if err != nil {
		return false
	}
	_, ok := form.Value[key]
	return ok
}
