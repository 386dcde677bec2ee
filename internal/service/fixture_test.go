package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	clock      *fakeClock
	dispatcher events.Dispatcher
	published  []events.Event
	tickets    *TicketService
	auth       *AuthService

	admin   *domain.User
	support *domain.User
	regular *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := auth.NewAuthorizer()
	require.NoError(t, err)

	f := &fixture{
		ctx:        context.Background(),
		store:      memory.New(),
		clock:      &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	for _, typ := range []events.EventType{
		events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketPriorityChanged,
		events.EventTicketAssigned, events.EventTicketCommentAdded, events.EventTicketDeleted,
	} {
		f.dispatcher.Subscribe(typ, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store.Tickets(),
		CommentRepo: f.store.Comments(),
		UserRepo:    f.store.Users(),
		Authorizer:  authz,
		Dispatcher:  f.dispatcher,
		Clock:       f.clock.Now,
	})

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	f.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo: f.store.Users(),
		Clock:    f.clock.Now,
	})

	f.admin = f.addUser(t, "Alice Admin", "admin@example.com", domain.RoleAdmin)
	f.support = f.addUser(t, "Sam Support", "support@example.com", domain.RoleSupport)
	f.regular = f.addUser(t, "Rita Regular", "regular@example.com", domain.RoleRegular)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: role}
	require.NoError(t, auth.SetPassword(user, "Passw0rd!", bcrypt.MinCost))
	require.NoError(t, f.store.Users().Create(f.ctx, user))
	return user
}

func (f *fixture) createTicket(t *testing.T, actor *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, actor, TicketCreateInput{
		Title:       title,
		Description: "Something is broken and needs fixing.",
		Priority:    domain.TicketPriorityMedium,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return ticket
}

func (f *fixture) eventTypes() []events.EventType {
	types := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	return types
}

func ptr[T any](v T) *T { return &v }
