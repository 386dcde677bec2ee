package domain

import "time"

// Comment is a remark on a ticket. Audit entries generated on field changes are
// stored the same way as user-written remarks.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
