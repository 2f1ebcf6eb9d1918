package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/balu-dk/go-purifier-cms/config"
	"github.com/balu-dk/go-purifier-cms/internal/db/models"
	ierr "github.com/balu-dk/go-purifier-cms/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

// PostgresStore keeps each entity as a JSONB document
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes a new PostgreSQL connection pool
func NewPostgresStore(cfg *config.Config) (*PostgresStore, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// GetPlan retrieves a plan by its ID
func (s *PostgresStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	plan := &models.Plan{}
	if err := s.getDoc(ctx, `SELECT doc FROM plans WHERE id = $1`, plan, "plan", id); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans retrieves all plans
func (s *PostgresStore) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	return listDocs[models.Plan](ctx, s.pool, `SELECT doc FROM plans ORDER BY created_at`)
}

// CreatePlan inserts a new plan
func (s *PostgresStore) CreatePlan(ctx context.Context, plan *models.Plan) error {
	doc, err := marshalDoc(plan)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO plans (id, doc, created_at, updated_at) VALUES ($1, $2::jsonb, $3, $4)`,
		plan.ID, doc, plan.CreatedAt, plan.UpdatedAt,
	)
	return storageErr(err, "plan", plan.ID)
}

// UpdatePlan replaces a plan document
func (s *PostgresStore) UpdatePlan(ctx context.Context, plan *models.Plan) error {
	doc, err := marshalDoc(plan)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE plans SET doc = $2::jsonb, updated_at = $3 WHERE id = $1`,
		plan.ID, doc, plan.UpdatedAt,
	)
	if err != nil {
		return storageErr(err, "plan", plan.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("plan", plan.ID)
	}
	return nil
}

// GetCustomer retrieves a customer by its ID
func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c := &models.Customer{}
	if err := s.getDoc(ctx, `SELECT doc FROM customers WHERE id = $1`, c, "customer", id); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCustomerByDevice retrieves the customer a device is installed at
func (s *PostgresStore) GetCustomerByDevice(ctx context.Context, deviceID string) (*models.Customer, error) {
	c := &models.Customer{}
	if err := s.getDoc(ctx, `SELECT doc FROM customers WHERE device_id = $1`, c, "device", deviceID); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers retrieves all customers, newest first
func (s *PostgresStore) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return listDocs[models.Customer](ctx, s.pool, `SELECT doc FROM customers ORDER BY created_at DESC`)
}

// CreateCustomer inserts a customer together with its first recharge record
func (s *PostgresStore) CreateCustomer(ctx context.Context, c *models.Customer, rec *models.RechargeRecord) error {
	doc, err := marshalDoc(c)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO customers (id, device_id, doc, created_at, updated_at) VALUES ($1, $2, $3::jsonb, $4, $5)`,
			c.ID, nullString(c.DeviceID), doc, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			return storageErr(err, "customer", c.ID)
		}
		return insertRecharge(ctx, tx, rec)
	})
}

// SaveCycle overwrites every plan and cycle field of a customer and appends
// the recharge record, atomically
func (s *PostgresStore) SaveCycle(ctx context.Context, customerID string, state models.CycleState, rec *models.RechargeRecord, now time.Time) error {
	patch, err := cyclePatch(state, now)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE customers SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1`,
			customerID, patch, now,
		)
		if err != nil {
			return storageErr(err, "customer", customerID)
		}
		if tag.RowsAffected() == 0 {
			return notFound("customer", customerID)
		}
		return insertRecharge(ctx, tx, rec)
	})
}

// SaveUsage writes the usage counters, history and last contact of a
// customer in a single update
func (s *PostgresStore) SaveUsage(ctx context.Context, c *models.Customer, now time.Time) error {
	patch, err := usagePatch(c, now)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE customers SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1`,
		c.ID, patch, now,
	)
	if err != nil {
		return storageErr(err, "customer", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("customer", c.ID)
	}
	return nil
}

// ListRecharges retrieves a customer's recharge history, newest first
func (s *PostgresStore) ListRecharges(ctx context.Context, customerID string) ([]*models.RechargeRecord, error) {
	return listDocs[models.RechargeRecord](ctx, s.pool,
		`SELECT doc FROM recharges WHERE customer_id = $1 ORDER BY recharged_at DESC, id DESC`, customerID)
}

// CreateTicket inserts a service ticket
func (s *PostgresStore) CreateTicket(ctx context.Context, t *models.ServiceTicket) error {
	doc, err := marshalDoc(t)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO tickets (id, customer_id, doc, created_at, updated_at) VALUES ($1, $2, $3::jsonb, $4, $5)`,
		t.ID, t.CustomerID, doc, t.CreatedAt, t.UpdatedAt,
	)
	return storageErr(err, "ticket", t.ID)
}

// GetTicket retrieves a ticket by its ID
func (s *PostgresStore) GetTicket(ctx context.Context, id string) (*models.ServiceTicket, error) {
	t := &models.ServiceTicket{}
	if err := s.getDoc(ctx, `SELECT doc FROM tickets WHERE id = $1`, t, "ticket", id); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTicket replaces a ticket document
func (s *PostgresStore) UpdateTicket(ctx context.Context, t *models.ServiceTicket) error {
	doc, err := marshalDoc(t)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET doc = $2::jsonb, updated_at = $3 WHERE id = $1`,
		t.ID, doc, t.UpdatedAt,
	)
	if err != nil {
		return storageErr(err, "ticket", t.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("ticket", t.ID)
	}
	return nil
}

// ListTickets retrieves tickets, optionally for one customer, newest first
func (s *PostgresStore) ListTickets(ctx context.Context, customerID string) ([]*models.ServiceTicket, error) {
	if customerID == "" {
		return listDocs[models.ServiceTicket](ctx, s.pool, `SELECT doc FROM tickets ORDER BY created_at DESC`)
	}
	return listDocs[models.ServiceTicket](ctx, s.pool,
		`SELECT doc FROM tickets WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
}

// LogDeviceMessage stores a raw device payload
func (s *PostgresStore) LogDeviceMessage(ctx context.Context, msg *models.DeviceMessage) error {
	payload := msg.Payload
	if !json.Valid([]byte(payload)) {
		logrus.WithField("deviceID", msg.DeviceID).Warn("Device payload is not valid JSON, storing as string")
		quoted, _ := json.Marshal(payload)
		payload = string(quoted)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO device_messages (device_id, customer_id, action, payload, timestamp) VALUES ($1, $2, $3, $4::jsonb, $5)`,
		nullString(msg.DeviceID), nullString(msg.CustomerID), msg.Action, payload, msg.Timestamp,
	)
	return storageErr(err, "device_message", msg.DeviceID)
}

// nullString maps an empty string to SQL NULL
func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *PostgresStore) getDoc(ctx context.Context, query string, dest any, kind, key string) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(kind, key)
		}
		return storageErr(err, kind, key)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ierr.WithError(err).
			WithMessage("decode " + kind + " document").
			WithReportableDetails(map[string]any{kind + "_id": key}).
			Mark(ierr.ErrStorage)
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr(err, "transaction", "")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return storageErr(tx.Commit(ctx), "transaction", "")
}

func insertRecharge(ctx context.Context, tx pgx.Tx, rec *models.RechargeRecord) error {
	doc, err := marshalDoc(rec)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO recharges (id, customer_id, recharged_at, doc) VALUES ($1, $2, $3, $4::jsonb)`,
		rec.ID, rec.CustomerID, rec.RechargedAt, doc,
	)
	return storageErr(err, "recharge", rec.ID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listDocs[T any](ctx context.Context, q querier, query string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err, "list", "")
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, storageErr(err, "list", "")
		}
		item := new(T)
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, ierr.WithError(err).WithMessage("decode document").Mark(ierr.ErrStorage)
		}
		out = append(out, item)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list", "")
	}
	return out, nil
}

func storageErr(err error, kind, key string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ierr.WithError(err).
			WithHintf("A %s with this identifier already exists", kind).
			WithReportableDetails(map[string]any{kind + "_id": key, "constraint": pgErr.ConstraintName}).
			Mark(ierr.ErrValidation)
	}
	return ierr.WithError(err).
		WithMessage(kind + " store operation failed").
		WithReportableDetails(map[string]any{kind + "_id": key}).
		Mark(ierr.ErrStorage)
}
