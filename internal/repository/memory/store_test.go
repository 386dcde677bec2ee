package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func TestStore_UserEmailUnique(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}))
	err := users.Create(ctx, &domain.User{Name: "Other", Email: "ADA@example.com", Role: domain.RoleRegular})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := users.GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)
}

func TestStore_DeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	store := New()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}
	require.NoError(t, store.Users().Create(ctx, user))

	now := time.Now()
	ticket := &domain.Ticket{Title: "Broken mouse", CreatorID: user.ID, Status: domain.TicketStatusOpen, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Tickets().Create(ctx, ticket))
	comments := ticket.SetStatus(domain.TicketStatusClosed, user.ID, now)
	require.NoError(t, store.Tickets().Update(ctx, ticket, comments))

	listed, err := store.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Status changed to closed.", listed[0].Body)

	require.NoError(t, store.Tickets().Delete(ctx, ticket.ID))
	listed, err = store.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
	assert.ErrorIs(t, store.Tickets().Delete(ctx, ticket.ID), repository.ErrNotFound)
}

func TestStore_ListOrderAndCopies(t *testing.T) {
	ctx := context.Background()
	store := New()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleRegular}
	require.NoError(t, store.Users().Create(ctx, user))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := &domain.Ticket{Title: "older", CreatorID: user.ID, Status: domain.TicketStatusOpen, CreatedAt: base, UpdatedAt: base}
	newer := &domain.Ticket{Title: "newer", CreatorID: user.ID, Status: domain.TicketStatusOpen, CreatedAt: base, UpdatedAt: base.Add(time.Minute)}
	require.NoError(t, store.Tickets().Create(ctx, older))
	require.NoError(t, store.Tickets().Create(ctx, newer))

	list, err := store.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)

	list[0].Title = "mutated"
	again, err := store.Tickets().GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "newer", again.Title)

	count, err := store.Tickets().Count(ctx, repository.TicketFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
