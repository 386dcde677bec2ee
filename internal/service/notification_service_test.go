package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/mail"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func TestNotificationService_AssignmentAndStatus(t *testing.T) {
	f := newFixture(t)
	mailer := &mockMailer{}
	NewNotificationService(config.AppConfig{BaseURL: "http://helpdesk.test"}, NotificationDependencies{
		Dispatcher: f.dispatcher,
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Mailer:     mailer,
	}).RegisterHandlers()

	ticket := f.createTicket(t, f.regular, "Scanner offline")

	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "support@example.com" && msg.Subject == "Ticket assigned to you"
	})).Return(nil).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "regular@example.com" &&
			msg.Subject == "Ticket status changed to in-progress" &&
			strings.Contains(msg.PlainBody, "http://helpdesk.test/ticket/"+ticket.ID)
	})).Return(nil).Once()

	_, err := f.tickets.UpdateTicket(f.ctx, f.admin, ticket.ID, TicketChanges{
		Status:     ptr(domain.TicketStatusInProgress),
		AssigneeID: ptr(f.support.ID),
	})
	require.NoError(t, err)
	mailer.AssertExpectations(t)
}

func TestNotificationService_SkipsSelfActions(t *testing.T) {
	f := newFixture(t)
	mailer := &mockMailer{}
	NewNotificationService(config.AppConfig{}, NotificationDependencies{
		Dispatcher: f.dispatcher,
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Mailer:     mailer,
	}).RegisterHandlers()

	ticket := f.createTicket(t, f.support, "Own ticket")
	_, err := f.tickets.AssignTicket(f.ctx, f.support, ticket.ID, "")
	require.NoError(t, err)
	_, err = f.tickets.UpdateTicket(f.ctx, f.support, ticket.ID, TicketChanges{Status: ptr(domain.TicketStatusClosed)})
	require.NoError(t, err)

	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
