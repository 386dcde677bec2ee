package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// SeedOptions describes the initial administrator.
type SeedOptions struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
	// SampleTicket adds one ticket with a comment so the lists are not empty.
	SampleTicket bool
}

// Seed creates the administrator account if it does not exist yet. Running
// it twice is harmless.
func (a *App) Seed(ctx context.Context, opts SeedOptions) (*domain.User, error) {
	if opts.AdminName == "" {
		opts.AdminName = "Admin User"
	}
	if opts.AdminEmail == "" {
		opts.AdminEmail = "admin@example.com"
	}

	existing, err := a.Users.GetByEmail(ctx, opts.AdminEmail)
	switch {
	case err == nil:
		a.Logger.Info("seed admin already present", zap.String("email", existing.Email))
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	admin, _, err := a.AuthService.Register(ctx, service.RegisterInput{
		Name:     opts.AdminName,
		Email:    opts.AdminEmail,
		Password: opts.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	a.Logger.Info("seeded admin", zap.String("user_id", admin.ID), zap.String("email", admin.Email))

	if !opts.SampleTicket {
		return admin, nil
	}
	ticket, err := a.TicketService.CreateTicket(ctx, admin, service.TicketCreateInput{
		Title:       "Sample Ticket",
		Description: "This ticket was created by the seed command.",
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
	})
	if err != nil {
		return nil, err
	}
	if _, err := a.TicketService.UpdateTicket(ctx, admin, ticket.ID, service.TicketChanges{
		Comment: "This is a sample comment.",
	}); err != nil {
		return nil, err
	}
	return admin, nil
}
