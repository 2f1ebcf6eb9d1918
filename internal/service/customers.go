package service

import (
	"context"
	"sort"

	"github.com/balu-dk/go-purifier-cms/internal/accounting"
	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/balu-dk/go-purifier-cms/internal/types"
	"github.com/balu-dk/go-purifier-cms/internal/validator"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// RechargeResult is the customer after a recharge and the audit record written
type RechargeResult struct {
	Customer *models.Customer       `json:"customer"`
	Recharge *models.RechargeRecord `json:"recharge"`
}

// RegisterCustomer creates a customer and establishes the first cycle,
// anchored at the installation date
func (s *Service) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*models.Customer, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("register", err)
	}

	now := s.clock.Now()
	installed := now
	if req.InstallationDate != "" {
		var err error
		if installed, err = parseDate("installationDate", req.InstallationDate); err != nil {
			return nil, s.fail("register", err)
		}
	}

	terms, err := s.catalog.Resolve(ctx, req.PlanID)
	if err != nil {
		return nil, s.fail("register", err)
	}

	id := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER)
	est, err := accounting.EstablishCycle(nil, terms, accounting.Event{
		CustomerID:    id,
		Mode:          models.ModeReplace,
		At:            installed,
		PaymentMethod: req.PaymentMethod,
		PricePaid:     req.PricePaid,
	})
	if err != nil {
		return nil, s.fail("register", err)
	}

	c := &models.Customer{
		ID:               id,
		Name:             req.Name,
		Phone:            req.Phone,
		Address:          req.Address,
		DeviceID:         req.DeviceID,
		InstallationDate: installed,
		CycleState:       est.State,
		LastUsage:        []models.UsageEntry{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	rec := est.Record
	rec.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECHARGE)

	if err := s.store.CreateCustomer(ctx, c, &rec); err != nil {
		return nil, s.fail("register", err)
	}
	s.metrics.Registered()

	logrus.WithFields(logrus.Fields{
		"customerID": c.ID,
		"planID":     terms.PlanID,
		"cycleEnd":   c.CycleEndDate.Time,
	}).Info("Customer registered")
	return c, nil
}

// Recharge establishes a new cycle for an existing customer. The customer is
// read right before the write; the write overwrites every cycle field.
func (s *Service) Recharge(ctx context.Context, customerID string, req RechargeRequest) (*RechargeResult, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, s.fail("recharge", err)
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeReplace
	}

	terms, err := s.catalog.Resolve(ctx, req.PlanID)
	if err != nil {
		return nil, s.fail("recharge", err)
	}

	now := s.clock.Now()
	c, err := s.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, s.fail("recharge", err)
	}

	est, err := accounting.EstablishCycle(&c.CycleState, terms, accounting.Event{
		CustomerID:    c.ID,
		Mode:          mode,
		At:            now,
		PaymentMethod: req.PaymentMethod,
		PricePaid:     req.PricePaid,
	})
	if err != nil {
		return nil, s.fail("recharge", err)
	}
	if est.MalformedEndDate {
		logrus.WithFields(logrus.Fields{
			"customerID": c.ID,
			"planID":     terms.PlanID,
		}).Warn("Stored cycle end date is unreadable, add-mode recharge starts now")
	}

	rec := est.Record
	rec.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECHARGE)
	if err := s.store.SaveCycle(ctx, c.ID, est.State, &rec, now); err != nil {
		return nil, s.fail("recharge", err)
	}
	c.CycleState = est.State
	c.UpdatedAt = now
	s.metrics.Recharged(rec.Mode, est.Extended)

	logrus.WithFields(logrus.Fields{
		"customerID": c.ID,
		"planID":     terms.PlanID,
		"mode":       rec.Mode,
		"extended":   est.Extended,
		"cycleEnd":   rec.CycleEndDate,
	}).Info("Customer recharged")
	return &RechargeResult{Customer: c, Recharge: &rec}, nil
}

// GetCustomer returns a specific customer
func (s *Service) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// ListCustomers returns all customers
func (s *Service) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// ListRecharges returns a customer's recharge history, newest first
func (s *Service) ListRecharges(ctx context.Context, customerID string) ([]*models.RechargeRecord, error) {
	if _, err := s.store.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.store.ListRecharges(ctx, customerID)
}

// CustomerStatus returns remaining days and allowances of the current cycle
func (s *Service) CustomerStatus(ctx context.Context, id string) (*accounting.CycleStatus, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	st := accounting.Status(c, s.clock.Now(), s.config.ExpiryWarningDays)
	return &st, nil
}

// ListExpiring returns the status of every customer whose cycle ends within
// withinDays (already expired included), soonest first
func (s *Service) ListExpiring(ctx context.Context, withinDays int) ([]accounting.CycleStatus, error) {
	if withinDays < 0 {
		return nil, ierr.NewError("window must not be negative").
			WithHint("within must be zero or more days").
			Mark(ierr.ErrValidation)
	}

	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	expiring := lo.Filter(customers, func(c *models.Customer, _ int) bool {
		return accounting.EndsWithin(c, now, withinDays)
	})
	out := lo.Map(expiring, func(c *models.Customer, _ int) accounting.CycleStatus {
		return accounting.Status(c, now, s.config.ExpiryWarningDays)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CycleEndDate.Before(out[j].CycleEndDate) })
	return out, nil
}
