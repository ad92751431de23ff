package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
	"delivery/internal/lifecycle"
	"delivery/internal/pricing"
	internalRedis "delivery/internal/redis"
	"delivery/internal/repository"
)

// DefaultPaymentLockTTL bounds how long a crashed confirmation can block retries.
const DefaultPaymentLockTTL = 30 * time.Second

// OrderService handles the order lifecycle and payment confirmation.
type OrderService struct {
	orders        repository.OrderRepository
	tx            repository.TxRunner
	locker        internalRedis.PaymentLocker
	catalog       *CatalogService
	notifications *NotificationService
	receipts      *ReceiptService
	lockTTL       time.Duration
}

// NewOrderService creates a new OrderService. locker and catalog may be nil.
func NewOrderService(
	orders repository.OrderRepository,
	tx repository.TxRunner,
	locker internalRedis.PaymentLocker,
	catalog *CatalogService,
	notifications *NotificationService,
	receipts *ReceiptService,
	lockTTL time.Duration,
) *OrderService {
	if lockTTL <= 0 {
		lockTTL = DefaultPaymentLockTTL
	}
	if notifications == nil {
		notifications = NewNotificationService(nil)
	}
	if receipts == nil {
		receipts = NewReceiptService()
	}
	return &OrderService{
		orders:        orders,
		tx:            tx,
		locker:        locker,
		catalog:       catalog,
		notifications: notifications,
		receipts:      receipts,
		lockTTL:       lockTTL,
	}
}

// ListOrdersRequest contains the parameters for listing active orders.
type ListOrdersRequest struct {
	Statuses []string
	DriverID string
}

// List returns orders in the requested statuses, pending/assigned/in_progress by default.
func (s *OrderService) List(ctx context.Context, req ListOrdersRequest) ([]*domain.Order, error) {
	statuses, err := parseStatuses(req.Statuses)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = domain.ActiveOrderStatuses
	}

	orders, err := s.orders.List(ctx, repository.OrderFilter{Statuses: statuses, DriverID: req.DriverID})
	if err != nil {
		log.WithError(err).WithField("driver_id", req.DriverID).Error("failed to list orders")
		return nil, err
	}
	return orders, nil
}

// History returns delivered, failed and cancelled orders.
func (s *OrderService) History(ctx context.Context, driverID string) ([]*domain.Order, error) {
	orders, err := s.orders.ListHistory(ctx, repository.OrderFilter{
		Statuses: domain.TerminalOrderStatuses,
		DriverID: driverID,
	})
	if err != nil {
		log.WithError(err).WithField("driver_id", driverID).Error("failed to list order history")
		return nil, err
	}
	return orders, nil
}

// Get returns a single order.
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	return s.orders.GetByID(ctx, id)
}

// CreateOrderRequest contains the parameters for creating an order.
type CreateOrderRequest struct {
	Customer          domain.CustomerSnapshot
	RequestedProducts map[string]int
	DeliveryZone      string
	Priority          string
}

// Create persists a new pending order.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.Customer.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	requested := make(map[string]int, len(req.RequestedProducts))
	for name, qty := range req.RequestedProducts {
		if strings.TrimSpace(name) == "" || qty < 0 {
			return nil, fmt.Errorf("%w: invalid requested product %q", ErrValidation, name)
		}
		if qty > 0 {
			requested[name] = qty
		}
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: at least one product is required", ErrValidation)
	}

	now := time.Now()
	order := &domain.Order{
		ID:                uuid.New().String(),
		OrderNumber:       nextOrderNumber(now),
		Status:            domain.OrderStatusPending,
		Customer:          req.Customer,
		DeliveryZone:      req.DeliveryZone,
		Priority:          req.Priority,
		RequestedProducts: requested,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if order.Priority == "" {
		order.Priority = "normal"
	}

	if err := s.orders.Create(ctx, order); err != nil {
		log.WithError(err).WithField("order_number", order.OrderNumber).Error("failed to create order")
		return nil, err
	}

	s.notifications.NotifyOrderCreated(ctx, order)
	return order, nil
}

// UpdateStatusRequest contains the parameters for a status change.
type UpdateStatusRequest struct {
	OrderID       string
	Status        string
	FailureReason string
	FailureNote   string
	DriverID      string
}

// UpdateStatus applies a lifecycle transition and persists it atomically.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidation)
	}

	t := lifecycle.Transition{
		Status:        domain.OrderStatus(strings.TrimSpace(req.Status)),
		FailureReason: req.FailureReason,
		FailureNote:   req.FailureNote,
		DriverID:      req.DriverID,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := lifecycle.Apply(order, t, time.Now()); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, order, from); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"from":     from,
			"to":       order.Status,
		}).Error("failed to update order status")
		return nil, err
	}

	s.notifications.NotifyOrderStatusChanged(ctx, order, from)
	return order, nil
}

// ConfirmPaymentRequest contains a completed sale.
type ConfirmPaymentRequest struct {
	// OrderID is the order being fulfilled. Empty creates a new order.
	OrderID       string
	Customer      domain.CustomerSnapshot
	DeliveryZone  string
	Lines         []pricing.Line
	PaymentMethod string
	// Totals as shown to the customer. Nil skips the comparison.
	Totals *pricing.Totals
}

// ConfirmPayment records a sale and decrements stock in one transaction.
// Either the order and every stock decrement commit, or nothing does.
func (s *OrderService) ConfirmPayment(ctx context.Context, req ConfirmPaymentRequest) (*domain.Order, error) {
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if !method.Valid() {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, req.PaymentMethod)
	}

	items, delivered, err := validateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	computed := pricing.ComputeTotals(req.Lines)
	if req.Totals != nil && !pricing.TotalsMatch(computed, *req.Totals) {
		return nil, fmt.Errorf("%w: expected total %.2f, got %.2f", ErrTotalsMismatch, computed.Total, req.Totals.Total)
	}

	if req.OrderID == "" {
		c := req.Customer
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Address) == "" {
			return nil, fmt.Errorf("%w: customer name, phone and address are required", ErrValidation)
		}
	}

	if req.OrderID != "" && s.locker != nil {
		acquired, err := s.locker.AcquirePaymentLock(ctx, req.OrderID, s.lockTTL)
		if err != nil {
			log.WithError(err).WithField("order_id", req.OrderID).Warn("payment lock unavailable, continuing without it")
		} else if !acquired {
			return nil, ErrPaymentInProgress
		} else {
			defer func() {
				if err := s.locker.ReleasePaymentLock(context.WithoutCancel(ctx), req.OrderID); err != nil {
					log.WithError(err).WithField("order_id", req.OrderID).Warn("failed to release payment lock")
				}
			}()
		}
	}

	now := time.Now()
	paidAt := now
	snapshot := &domain.Pricing{
		Subtotal:      computed.Subtotal,
		VAT:           computed.VAT,
		Total:         computed.Total,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPaid,
		PaidAt:        &paidAt,
	}

	var order *domain.Order
	err = s.tx.WithinTx(ctx, func(repos repository.TxRepositories) error {
		if req.OrderID != "" {
			existing, err := repos.Orders.GetByID(ctx, req.OrderID)
			if err != nil {
				return err
			}
			if existing.Status.Terminal() {
				return fmt.Errorf("%w: %s", lifecycle.ErrTerminalStatus, existing.Status)
			}
			if existing.IsPaid() {
				return ErrOrderAlreadyPaid
			}
			existing.DeliveredProducts = delivered
			existing.Items = items
			existing.Pricing = snapshot
			existing.UpdatedAt = now
			if err := repos.Orders.RecordPayment(ctx, existing); err != nil {
				return err
			}
			order = existing
		} else {
			order = &domain.Order{
				ID:                uuid.New().String(),
				OrderNumber:       nextOrderNumber(now),
				Status:            domain.OrderStatusPending,
				Customer:          req.Customer,
				DeliveryZone:      req.DeliveryZone,
				Priority:          "normal",
				RequestedProducts: delivered,
				DeliveredProducts: delivered,
				Items:             items,
				Pricing:           snapshot,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
		}

		for _, it := range items {
			if err := repos.Products.DecrementStock(ctx, it.ProductID, it.Name, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		entry := log.WithError(err).WithField("order_id", req.OrderID)
		if errors.Is(err, repository.ErrStockInsufficient) || errors.Is(err, ErrOrderAlreadyPaid) {
			entry.Warn("payment confirmation rejected")
		} else {
			entry.Error("payment confirmation failed")
		}
		return nil, err
	}

	if s.catalog != nil {
		s.catalog.Invalidate(ctx)
	}
	s.notifications.NotifyPaymentConfirmed(ctx, order)
	return order, nil
}

// ReceiptResult is a generated receipt with its printable form.
type ReceiptResult struct {
	Receipt *domain.Receipt
	Text    string
}

// Receipt builds the payment receipt for a paid order.
func (s *OrderService) Receipt(ctx context.Context, orderID string) (*ReceiptResult, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	receipt, err := s.receipts.GenerateReceipt(order)
	if err != nil {
		return nil, err
	}
	return &ReceiptResult{Receipt: receipt, Text: s.receipts.FormatReceipt(receipt)}, nil
}

// validateLines rejects malformed sale lines and folds them into priced
// items and a name-to-quantity map. Zero-quantity lines are dropped.
func validateLines(lines []pricing.Line) ([]domain.OrderItem, map[string]int, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	delivered := make(map[string]int, len(lines))

	for i, l := range lines {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: line %d has no product name", ErrValidation, i)
		}
		if !l.Price.Valid || l.Price.Value < 0 {
			return nil, nil, fmt.Errorf("%w: line %d (%s) has an invalid price", ErrValidation, i, name)
		}
		if !l.Quantity.Valid || l.Quantity.Value < 0 || l.Quantity.Value != math.Trunc(l.Quantity.Value) {
			return nil, nil, fmt.Errorf("%w: line %d (%s) has an invalid quantity", ErrValidation, i, name)
		}
		qty := int(l.Quantity.Value)
		if qty == 0 {
			continue
		}
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      name,
			Quantity:  qty,
			UnitPrice: l.Price.Value,
		})
		delivered[name] += qty
	}

	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidation, pricing.ErrEmptyCart)
	}
	return items, delivered, nil
}

func parseStatuses(raw []string) ([]domain.OrderStatus, error) {
	var out []domain.OrderStatus
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			st := domain.OrderStatus(part)
			if !st.Valid() {
				return nil, fmt.Errorf("%w: %q", lifecycle.ErrInvalidStatus, part)
			}
			out = append(out, st)
		}
	}
	return out, nil
}

var (
	orderNumberMu   sync.Mutex
	lastOrderMillis int64
)

// nextOrderNumber returns ORD-<unix millis>, bumping the millisecond when two
// orders are numbered within the same one.
func nextOrderNumber(now time.Time) string {
	orderNumberMu.Lock()
	defer orderNumberMu.Unlock()

	ms := now.UnixMilli()
	if ms <= lastOrderMillis {
		ms = lastOrderMillis + 1
	}
	lastOrderMillis = ms
	return fmt.Sprintf("ORD-%d", ms)
}
