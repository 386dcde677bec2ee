package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest is the create form and the JSON create payload. Title
// and description rules live in the domain so their messages stay the same
// on both surfaces.
type CreateTicketRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=1000"`
	Description string `json:"description" form:"description" validate:"required,max=5000"`
	Priority    string `json:"priority" form:"priority" validate:"required,oneof=low medium high"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=open in-progress closed"`
	UserID      string `json:"user_id" form:"user_id"`
	AssignedTo  string `json:"assigned_to" form:"assigned_to"`
}

// UpdateTicketRequest is the PATCH payload; absent fields are left alone and
// an empty assignee_id unassigns.
type UpdateTicketRequest struct {
	Status     *string `json:"status" validate:"omitempty,oneof=open in-progress closed"`
	Priority   *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID *string `json:"assignee_id"`
	Comment    string  `json:"comment" validate:"max=5000"`
}

// TicketDetailsForm is posted from the ticket details page.
type TicketDetailsForm struct {
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	AssignedTo string `form:"assigned_to"`
	Comment    string `form:"comment"`
}

// AssignTicketRequest names who should work a ticket. Support staff leave it
// empty to take the ticket themselves.
type AssignTicketRequest struct {
	TicketID   string `json:"ticket_id" form:"ticket_id"`
	AssigneeID string `json:"assignee_id" form:"assigned_to"`
}

// TicketSummary response.
type TicketSummary struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	CreatorID  string                `json:"creator_id"`
	AssigneeID *string               `json:"assignee_id"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string            `json:"description"`
	Creator     *UserResponse     `json:"creator"`
	Assignee    *UserResponse     `json:"assignee"`
	Comments    []CommentResponse `json:"comments"`
}

// CommentResponse represents one entry of the ticket thread.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateTicketResponse reports what an update changed and what was refused.
type UpdateTicketResponse struct {
	Ticket   TicketSummary     `json:"ticket"`
	Comments []CommentResponse `json:"comments"`
	Denied   []string          `json:"denied"`
}

// ActiveStatsResponse is the navigation badge.
type ActiveStatsResponse struct {
	Count int    `json:"count"`
	Tier  string `json:"tier"`
	Class string `json:"class"`
}
