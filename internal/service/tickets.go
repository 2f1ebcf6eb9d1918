package service

import (
	"context"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	"github.com/balu-dk/go-purifier-cms/internal/types"
	"github.com/balu-dk/go-purifier-cms/internal/validator"
	"github.com/sirupsen/logrus"
)

// OpenTicket opens a service ticket for an existing customer
func (s *Service) OpenTicket(ctx context.Context, req OpenTicketRequest) (*models.ServiceTicket, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("open_ticket", err)
	}
	if _, err := s.store.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, s.fail("open_ticket", err)
	}

	now := s.clock.Now()
	t := &models.ServiceTicket{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TICKET),
		CustomerID:  req.CustomerID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTicket(ctx, t); err != nil {
		return nil, s.fail("open_ticket", err)
	}

	logrus.WithFields(logrus.Fields{
		"ticketID":   t.ID,
		"customerID": t.CustomerID,
	}).Info("Service ticket opened")
	return t, nil
}

// UpdateTicketStatus moves a ticket to a new status
func (s *Service) UpdateTicketStatus(ctx context.Context, id string, req UpdateTicketRequest) (*models.ServiceTicket, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("update_ticket", err)
	}

	t, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return nil, s.fail("update_ticket", err)
	}
	t.Status = req.Status
	t.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateTicket(ctx, t); err != nil {
		return nil, s.fail("update_ticket", err)
	}
	return t, nil
}

// ListTickets returns tickets, optionally for one customer
func (s *Service) ListTickets(ctx context.Context, customerID string) ([]*models.ServiceTicket, error) {
	return s.store.ListTickets(ctx, customerID)
}
