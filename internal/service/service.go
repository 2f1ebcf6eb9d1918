package service

import (
	"context"
	"time"

	"github.com/balu-dk/go-purifier-cms/config"
	"github.com/balu-dk/go-purifier-cms/internal/accounting"
	"github.com/balu-dk/go-purifier-cms/internal/clock"
	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	"github.com/balu-dk/go-purifier-cms/internal/device"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/balu-dk/go-purifier-cms/internal/metrics"
)

// Store is the document store the service runs against. Each method is
// atomic on its own.
type Store interface {
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	CreatePlan(ctx context.Context, plan *models.Plan) error
	UpdatePlan(ctx context.Context, plan *models.Plan) error

	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByDevice(ctx context.Context, deviceID string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer, rec *models.RechargeRecord) error
	SaveCycle(ctx context.Context, customerID string, state models.CycleState, rec *models.RechargeRecord, now time.Time) error
	SaveUsage(ctx context.Context, c *models.Customer, now time.Time) error
	ListRecharges(ctx context.Context, customerID string) ([]*models.RechargeRecord, error)

	CreateTicket(ctx context.Context, t *models.ServiceTicket) error
	GetTicket(ctx context.Context, id string) (*models.ServiceTicket, error)
	UpdateTicket(ctx context.Context, t *models.ServiceTicket) error
	ListTickets(ctx context.Context, customerID string) ([]*models.ServiceTicket, error)

	device.MessageStore
}

// Service is the purifier back-office: plans, customers, recharges, usage
// and service tickets
type Service struct {
	config  *config.Config
	store   Store
	catalog *accounting.Catalog
	devices *device.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
}

// New creates the back-office service
func New(cfg *config.Config, store Store, m *metrics.Metrics, clk clock.Clock) *Service {
	return &Service{
		config:  cfg,
		store:   store,
		catalog: accounting.NewCatalog(store),
		devices: device.NewLogger(store),
		metrics: m,
		clock:   clk,
	}
}

// WarningDays is the default expiry warning window
func (s *Service) WarningDays() int {
	return s.config.ExpiryWarningDays
}

func (s *Service) fail(operation string, err error) error {
	code := ierr.ErrCodeSystem
	switch {
	case ierr.IsValidation(err):
		code = ierr.ErrCodeValidation
	case ierr.IsNotFound(err):
		code = ierr.ErrCodeNotFound
	case ierr.IsInactive(err):
		code = ierr.ErrCodeInactive
	case ierr.IsStorage(err):
		code = ierr.ErrCodeStorage
	}
	s.metrics.Failed(operation, code)
	return err
}
