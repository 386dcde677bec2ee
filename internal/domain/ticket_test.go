package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTicket() *Ticket {
	return &Ticket{
		ID:          "t-1",
		Title:       "Printer jam",
		Description: "Paper stuck in tray two",
		Status:      TicketStatusOpen,
		Priority:    TicketPriorityLow,
		CreatorID:   "u-1",
	}
}

func TestTicket_SetStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("change produces one audit comment", func(t *testing.T) {
		tk := newTestTicket()
		comments := tk.SetStatus(TicketStatusInProgress, "admin", at)
		require.Len(t, comments, 1)
		assert.Equal(t, TicketStatusInProgress, tk.Status)
		assert.Equal(t, "Status changed to in-progress.", comments[0].Body)
		assert.Equal(t, "t-1", comments[0].TicketID)
		assert.Equal(t, "admin", comments[0].AuthorID)
		assert.Equal(t, at, comments[0].CreatedAt)
	})

	t.Run("same value produces nothing", func(t *testing.T) {
		tk := newTestTicket()
		assert.Empty(t, tk.SetStatus(TicketStatusOpen, "admin", at))
	})
}

func TestTicket_SetPriority(t *testing.T) {
	tk := newTestTicket()
	comments := tk.SetPriority(TicketPriorityHigh, "admin", time.Now())
	require.Len(t, comments, 1)
	assert.Equal(t, "Priority changed to high.", comments[0].Body)
	assert.Empty(t, tk.SetPriority(TicketPriorityHigh, "admin", time.Now()))
}

func TestTicket_SetAssignee(t *testing.T) {
	agent := &User{ID: "u-2", Name: "Sam Support", Role: RoleSupport}

	tk := newTestTicket()
	comments := tk.SetAssignee(agent, "admin", time.Now())
	require.Len(t, comments, 1)
	assert.Equal(t, "Assignee changed to Sam Support.", comments[0].Body)
	assert.True(t, tk.AssignedTo("u-2"))

	assert.Empty(t, tk.SetAssignee(agent, "admin", time.Now()), "reassigning to the same user is a no-op")

	comments = tk.SetAssignee(nil, "admin", time.Now())
	require.Len(t, comments, 1)
	assert.Equal(t, "Assignee changed to Unassigned.", comments[0].Body)
	assert.False(t, tk.IsAssigned())

	assert.Empty(t, tk.SetAssignee(nil, "admin", time.Now()))
}

func TestTierForActiveCount(t *testing.T) {
	cases := map[int]ActivityTier{
		0:  ActivityTierInfo,
		1:  ActivityTierLow,
		5:  ActivityTierLow,
		6:  ActivityTierMedium,
		10: ActivityTierMedium,
		11: ActivityTierHigh,
	}
	for count, want := range cases {
		assert.Equal(t, want, TierForActiveCount(count), "count %d", count)
	}
	assert.Equal(t, "badge-active-tickets-high", NewActiveTicketStats(42).BadgeClass())
}
