package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

const defaultListLimit = 100

const orderColumns = `id, order_number, status, driver_id,
	customer_id, customer_site_id, customer_name, customer_phone, customer_email, customer_address,
	customer_latitude, customer_longitude, delivery_instructions, delivery_zone, priority,
	requested_products, delivered_products, items,
	subtotal, vat_amount, total_amount, payment_method, payment_status, paid_at,
	created_at, updated_at, assigned_at, started_at, delivered_at, completed_at,
	failure_reason, failure_note`

const (
	insertOrderQuery = `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
	`

	selectOrderByIDQuery = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = ANY($1) AND ($2 = '' OR driver_id = $2 OR driver_id IS NULL)
		ORDER BY created_at DESC
		LIMIT $3
	`

	listOrderHistoryQuery = `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = ANY($1) AND ($2 = '' OR driver_id = $2 OR driver_id IS NULL)
		ORDER BY COALESCE(completed_at, updated_at) DESC
		LIMIT $3
	`

	updateOrderStatusQuery = `
		UPDATE orders
		SET status = $2, driver_id = $3, updated_at = $4, assigned_at = $5, started_at = $6,
			delivered_at = $7, completed_at = $8, failure_reason = $9, failure_note = $10
		WHERE id = $1 AND status = $11
	`

	recordPaymentQuery = `
		UPDATE orders
		SET delivered_products = $2, items = $3, subtotal = $4, vat_amount = $5, total_amount = $6,
			payment_method = $7, payment_status = $8, paid_at = $9, updated_at = $10
		WHERE id = $1
			AND status IN ('pending', 'assigned', 'in_progress')
			AND (payment_status IS NULL OR payment_status <> 'paid')
	`

	orderExistsQuery = `SELECT status FROM orders WHERE id = $1`
)

// OrderRepository is a PostgreSQL implementation of repository.OrderRepository.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository creates a new PostgreSQL order repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{q: db}
}

// NewOrderRepositoryWithTx creates an order repository using a transaction.
func NewOrderRepositoryWithTx(tx *sql.Tx) *OrderRepository {
	return &OrderRepository{q: tx}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	requested, err := json.Marshal(orEmpty(o.RequestedProducts))
	if err != nil {
		return err
	}
	delivered, err := marshalNullable(o.DeliveredProducts, o.DeliveredProducts == nil)
	if err != nil {
		return err
	}
	items, err := marshalNullable(o.Items, o.Items == nil)
	if err != nil {
		return err
	}
	p := pricingColumns(o.Pricing)

	priority := o.Priority
	if priority == "" {
		priority = "normal"
	}

	_, err = r.q.ExecContext(ctx, insertOrderQuery,
		o.ID,
		o.OrderNumber,
		o.Status,
		nullString(o.DriverID),
		o.Customer.ID,
		o.Customer.SiteID,
		o.Customer.Name,
		o.Customer.Phone,
		o.Customer.Email,
		o.Customer.Address,
		nullFloat(o.Customer.Latitude),
		nullFloat(o.Customer.Longitude),
		o.Customer.DeliveryInstructions,
		o.DeliveryZone,
		priority,
		requested,
		delivered,
		items,
		p.subtotal,
		p.vat,
		p.total,
		p.method,
		p.status,
		p.paidAt,
		o.CreatedAt,
		o.UpdatedAt,
		nullTime(o.AssignedAt),
		nullTime(o.StartedAt),
		nullTime(o.DeliveredAt),
		nullTime(o.CompletedAt),
		nullString(o.FailureReason),
		nullString(o.FailureNote),
	)
	return mapWriteError(err)
}

// GetByID retrieves an order by ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, selectOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	return r.query(ctx, listOrdersQuery, filter)
}

// ListHistory returns terminal orders, most recently finished first.
func (r *OrderRepository) ListHistory(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	if len(filter.Statuses) == 0 {
		filter.Statuses = domain.TerminalOrderStatuses
	}
	return r.query(ctx, listOrderHistoryQuery, filter)
}

func (r *OrderRepository) query(ctx context.Context, query string, filter repository.OrderFilter) ([]*domain.Order, error) {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.ActiveOrderStatuses
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.q.QueryContext(ctx, query, pq.Array(names), filter.DriverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus writes lifecycle fields when the stored status equals expected.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, expected domain.OrderStatus) error {
	result, err := r.q.ExecContext(ctx, updateOrderStatusQuery,
		o.ID,
		o.Status,
		nullString(o.DriverID),
		o.UpdatedAt,
		nullTime(o.AssignedAt),
		nullTime(o.StartedAt),
		nullTime(o.DeliveredAt),
		nullTime(o.CompletedAt),
		nullString(o.FailureReason),
		nullString(o.FailureNote),
		expected,
	)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, result, o.ID)
}

// RecordPayment writes the pricing snapshot of an unpaid, non-terminal order.
func (r *OrderRepository) RecordPayment(ctx context.Context, o *domain.Order) error {
	if o.Pricing == nil {
		return fmt.Errorf("order %s has no pricing", o.ID)
	}
	delivered, err := json.Marshal(orEmpty(o.DeliveredProducts))
	if err != nil {
		return err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	p := pricingColumns(o.Pricing)

	result, err := r.q.ExecContext(ctx, recordPaymentQuery,
		o.ID,
		delivered,
		items,
		p.subtotal,
		p.vat,
		p.total,
		p.method,
		p.status,
		p.paidAt,
		o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, result, o.ID)
}

// checkAffected resolves a zero-row conditional update into NotFound or Stale.
func (r *OrderRepository) checkAffected(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	var status string
	err = r.q.QueryRowContext(ctx, orderExistsQuery, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: current status %s", repository.ErrStaleOrder, status)
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		o                              domain.Order
		driverID                       sql.NullString
		lat, lng                       sql.NullFloat64
		requested, delivered, items    []byte
		subtotal, vat, total           sql.NullFloat64
		method, paymentStatus          sql.NullString
		paidAt                         sql.NullTime
		assigned, started, deliveredAt sql.NullTime
		completed                      sql.NullTime
		failureReason, failureNote     sql.NullString
	)

	err := s.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Status,
		&driverID,
		&o.Customer.ID,
		&o.Customer.SiteID,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Email,
		&o.Customer.Address,
		&lat,
		&lng,
		&o.Customer.DeliveryInstructions,
		&o.DeliveryZone,
		&o.Priority,
		&requested,
		&delivered,
		&items,
		&subtotal,
		&vat,
		&total,
		&method,
		&paymentStatus,
		&paidAt,
		&o.CreatedAt,
		&o.UpdatedAt,
		&assigned,
		&started,
		&deliveredAt,
		&completed,
		&failureReason,
		&failureNote,
	)
	if err != nil {
		return nil, err
	}

	o.DriverID = stringPtr(driverID)
	o.Customer.Latitude = floatPtr(lat)
	o.Customer.Longitude = floatPtr(lng)

	if len(requested) > 0 {
		if err := json.Unmarshal(requested, &o.RequestedProducts); err != nil {
			return nil, fmt.Errorf("decode requested_products: %w", err)
		}
	}
	if len(delivered) > 0 {
		if err := json.Unmarshal(delivered, &o.DeliveredProducts); err != nil {
			return nil, fmt.Errorf("decode delivered_products: %w", err)
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}

	if total.Valid {
		o.Pricing = &domain.Pricing{
			Subtotal:      subtotal.Float64,
			VAT:           vat.Float64,
			Total:         total.Float64,
			PaymentMethod: domain.PaymentMethod(method.String),
			PaymentStatus: domain.PaymentStatus(paymentStatus.String),
			PaidAt:        timePtr(paidAt),
		}
	}

	o.AssignedAt = timePtr(assigned)
	o.StartedAt = timePtr(started)
	o.DeliveredAt = timePtr(deliveredAt)
	o.CompletedAt = timePtr(completed)
	o.FailureReason = stringPtr(failureReason)
	o.FailureNote = stringPtr(failureNote)

	return &o, nil
}

type pricingRow struct {
	subtotal, vat, total sql.NullFloat64
	method, status       sql.NullString
	paidAt               sql.NullTime
}

func pricingColumns(p *domain.Pricing) pricingRow {
	if p == nil {
		return pricingRow{}
	}
	return pricingRow{
		subtotal: sql.NullFloat64{Float64: p.Subtotal, Valid: true},
		vat:      sql.NullFloat64{Float64: p.VAT, Valid: true},
		total:    sql.NullFloat64{Float64: p.Total, Valid: true},
		method:   sql.NullString{String: string(p.PaymentMethod), Valid: p.PaymentMethod != ""},
		status:   sql.NullString{String: string(p.PaymentStatus), Valid: p.PaymentStatus != ""},
		paidAt:   nullTime(p.PaidAt),
	}
}

func orEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// marshalNullable encodes v as JSON, or returns an untyped nil for SQL NULL.
func marshalNullable(v any, isNil bool) (any, error) {
	if isNil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
