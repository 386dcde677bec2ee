package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists the valid statuses in display order.
var TicketStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Active reports whether the ticket still needs work.
func (s TicketStatus) Active() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketPriorities lists the valid priorities in display order.
var TicketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CreatorID   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssigned reports whether someone is working the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// AssignedTo reports whether userID is the current assignee.
func (t *Ticket) AssignedTo(userID string) bool {
	return t.IsAssigned() && *t.AssigneeID == userID
}

// SetStatus moves the ticket to status and returns the audit comment for the
// change. Nothing is returned when the status is unchanged.
func (t *Ticket) SetStatus(status TicketStatus, authorID string, at time.Time) []Comment {
	if t.Status == status {
		return nil
	}
	t.Status = status
	return []Comment{t.auditComment(authorID, at, fmt.Sprintf("Status changed to %s.", status))}
}

// SetPriority changes the priority and returns the audit comment for the change.
func (t *Ticket) SetPriority(priority TicketPriority, authorID string, at time.Time) []Comment {
	if t.Priority == priority {
		return nil
	}
	t.Priority = priority
	return []Comment{t.auditComment(authorID, at, fmt.Sprintf("Priority changed to %s.", priority))}
}

// SetAssignee hands the ticket to assignee, or unassigns it when assignee is nil.
func (t *Ticket) SetAssignee(assignee *User, authorID string, at time.Time) []Comment {
	name := "Unassigned"
	if assignee == nil {
		if !t.IsAssigned() {
			return nil
		}
		t.AssigneeID = nil
	} else {
		if t.AssignedTo(assignee.ID) {
			return nil
		}
		id := assignee.ID
		t.AssigneeID = &id
		name = assignee.Name
	}
	return []Comment{t.auditComment(authorID, at, fmt.Sprintf("Assignee changed to %s.", name))}
}

func (t *Ticket) auditComment(authorID string, at time.Time, body string) Comment {
	return Comment{
		TicketID:  t.ID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: at,
	}
}
