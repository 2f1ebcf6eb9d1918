package db

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/samber/lo"
)

// MemoryStore is an in-process document store with the same semantics as
// PostgresStore. Documents are kept encoded so callers never share memory
// with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	plans     map[string][]byte
	customers map[string][]byte
	devices   map[string]string
	recharges []memRow
	tickets   map[string][]byte
	messages  []models.DeviceMessage
}

type memRow struct {
	key string
	at  time.Time
	doc []byte
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:     map[string][]byte{},
		customers: map[string][]byte{},
		devices:   map[string]string{},
		tickets:   map[string][]byte{},
	}
}

// Close is a no-op
func (s *MemoryStore) Close() {}

// GetPlan retrieves a plan by its ID
func (s *MemoryStore) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeDoc[models.Plan](s.plans[id], "plan", id)
}

// ListPlans returns all plans, oldest first
func (s *MemoryStore) ListPlans(_ context.Context) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plans, err := decodeAll[models.Plan](lo.Values(s.plans))
	if err != nil {
		return nil, err
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].CreatedAt.Equal(plans[j].CreatedAt) {
			return plans[i].ID < plans[j].ID
		}
		return plans[i].CreatedAt.Before(plans[j].CreatedAt)
	})
	return plans, nil
}

// CreatePlan stores a new plan
func (s *MemoryStore) CreatePlan(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; ok {
		return duplicate("plan", plan.ID)
	}
	return putDoc(s.plans, plan.ID, plan)
}

// UpdatePlan replaces an existing plan
func (s *MemoryStore) UpdatePlan(_ context.Context, plan *models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return notFound("plan", plan.ID)
	}
	return putDoc(s.plans, plan.ID, plan)
}

// GetCustomer retrieves a customer by its ID
func (s *MemoryStore) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeDoc[models.Customer](s.customers[id], "customer", id)
}

// GetCustomerByDevice retrieves the customer a device is installed for
func (s *MemoryStore) GetCustomerByDevice(_ context.Context, deviceID string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.devices[deviceID]
	if !ok {
		return nil, notFound("device", deviceID)
	}
	return decodeDoc[models.Customer](s.customers[id], "customer", id)
}

// ListCustomers returns all customers, newest first
func (s *MemoryStore) ListCustomers(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customers, err := decodeAll[models.Customer](lo.Values(s.customers))
	if err != nil {
		return nil, err
	}
	sort.Slice(customers, func(i, j int) bool {
		if customers[i].CreatedAt.Equal(customers[j].CreatedAt) {
			return customers[i].ID > customers[j].ID
		}
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	return customers, nil
}

// CreateCustomer inserts a customer together with its first recharge record
func (s *MemoryStore) CreateCustomer(_ context.Context, c *models.Customer, rec *models.RechargeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return duplicate("customer", c.ID)
	}
	if _, ok := s.devices[c.DeviceID]; ok && c.DeviceID != "" {
		return duplicate("device", c.DeviceID)
	}
	recDoc, err := json.Marshal(rec)
	if err != nil {
		return ierr.WithError(err).WithMessage("encode document").Mark(ierr.ErrSystem)
	}
	if err := putDoc(s.customers, c.ID, c); err != nil {
		return err
	}
	if c.DeviceID != "" {
		s.devices[c.DeviceID] = c.ID
	}
	s.recharges = append(s.recharges, memRow{key: rec.CustomerID, at: rec.RechargedAt, doc: recDoc})
	return nil
}

// SaveCycle overwrites the cycle fields of a customer and appends the recharge record
func (s *MemoryStore) SaveCycle(_ context.Context, customerID string, state models.CycleState, rec *models.RechargeRecord, now time.Time) error {
	patch, err := cyclePatch(state, now)
	if err != nil {
		return err
	}
	recDoc, err := json.Marshal(rec)
	if err != nil {
		return ierr.WithError(err).WithMessage("encode document").Mark(ierr.ErrSystem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mergeCustomer(customerID, patch); err != nil {
		return err
	}
	s.recharges = append(s.recharges, memRow{key: rec.CustomerID, at: rec.RechargedAt, doc: recDoc})
	return nil
}

// SaveUsage writes the usage counters, history and last contact of a customer
func (s *MemoryStore) SaveUsage(_ context.Context, c *models.Customer, now time.Time) error {
	patch, err := usagePatch(c, now)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergeCustomer(c.ID, patch)
}

// ListRecharges returns a customer's recharge records, newest first
func (s *MemoryStore) ListRecharges(_ context.Context, customerID string) ([]*models.RechargeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := lo.Filter(s.recharges, func(r memRow, _ int) bool { return r.key == customerID })
	// newest first; append order breaks ties
	rows = lo.Reverse(rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.After(rows[j].at) })
	return decodeAll[models.RechargeRecord](lo.Map(rows, func(r memRow, _ int) []byte { return r.doc }))
}

// CreateTicket stores a new service ticket
func (s *MemoryStore) CreateTicket(_ context.Context, t *models.ServiceTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; ok {
		return duplicate("ticket", t.ID)
	}
	return putDoc(s.tickets, t.ID, t)
}

// GetTicket retrieves a ticket by its ID
func (s *MemoryStore) GetTicket(_ context.Context, id string) (*models.ServiceTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decodeDoc[models.ServiceTicket](s.tickets[id], "ticket", id)
}

// UpdateTicket replaces an existing ticket
func (s *MemoryStore) UpdateTicket(_ context.Context, t *models.ServiceTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; !ok {
		return notFound("ticket", t.ID)
	}
	return putDoc(s.tickets, t.ID, t)
}

// ListTickets returns tickets, newest first, optionally for one customer
func (s *MemoryStore) ListTickets(_ context.Context, customerID string) ([]*models.ServiceTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tickets, err := decodeAll[models.ServiceTicket](lo.Values(s.tickets))
	if err != nil {
		return nil, err
	}
	if customerID != "" {
		tickets = lo.Filter(tickets, func(t *models.ServiceTicket, _ int) bool { return t.CustomerID == customerID })
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID > tickets[j].ID
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

// LogDeviceMessage appends a raw device payload
func (s *MemoryStore) LogDeviceMessage(_ context.Context, msg *models.DeviceMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *msg
	m.ID = len(s.messages) + 1
	s.messages = append(s.messages, m)
	return nil
}

// DeviceMessages returns a copy of the logged device messages
func (s *MemoryStore) DeviceMessages() []models.DeviceMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DeviceMessage(nil), s.messages...)
}

func (s *MemoryStore) mergeCustomer(id, patch string) error {
	doc, ok := s.customers[id]
	if !ok {
		return notFound("customer", id)
	}
	merged, err := mergeDoc(doc, patch)
	if err != nil {
		return ierr.WithError(err).WithMessage("merge customer document").Mark(ierr.ErrStorage)
	}
	s.customers[id] = merged
	return nil
}

func putDoc(m map[string][]byte, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return ierr.WithError(err).WithMessage("encode document").Mark(ierr.ErrSystem)
	}
	m[key] = raw
	return nil
}

func decodeDoc[T any](raw []byte, kind, key string) (*T, error) {
	if raw == nil {
		return nil, notFound(kind, key)
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, ierr.WithError(err).WithMessage("decode " + kind + " document").Mark(ierr.ErrStorage)
	}
	return out, nil
}

func decodeAll[T any](docs [][]byte) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, raw := range docs {
		item := new(T)
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, ierr.WithError(err).WithMessage("decode document").Mark(ierr.ErrStorage)
		}
		out = append(out, item)
	}
	return out, nil
}

func duplicate(kind, key string) error {
	return ierr.NewError(kind+" already exists").
		WithHintf("A %s with this identifier already exists", kind).
		WithReportableDetails(map[string]any{kind + "_id": key}).
		Mark(ierr.ErrValidation)
}
