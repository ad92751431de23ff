package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOrderCreated       NotificationType = "ORDER_CREATED"
	NotificationOrderStatusChanged NotificationType = "ORDER_STATUS_CHANGED"
	NotificationPaymentConfirmed   NotificationType = "PAYMENT_CONFIRMED"
	NotificationExpenseSubmitted   NotificationType = "EXPENSE_SUBMITTED"
)

// Notification is an operational event about an order or expense.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService publishes operational events to the structured log.
type NotificationService struct {
	logger *log.Logger
}

// NewNotificationService creates a new NotificationService. A nil logger uses
// the logrus standard logger.
func NewNotificationService(logger *log.Logger) *NotificationService {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &NotificationService{logger: logger}
}

// NotifyOrderCreated reports a new order.
func (s *NotificationService) NotifyOrderCreated(ctx context.Context, order *domain.Order) {
	s.send(ctx, Notification{
		Type:        NotificationOrderCreated,
		RecipientID: derefString(order.DriverID),
		Title:       "New Order",
		Message:     fmt.Sprintf("Order %s created for %s", order.OrderNumber, order.Customer.Name),
		Data: map[string]any{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyOrderStatusChanged reports a lifecycle transition.
func (s *NotificationService) NotifyOrderStatusChanged(ctx context.Context, order *domain.Order, from domain.OrderStatus) {
	data := map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"from":         from,
		"to":           order.Status,
	}
	if order.FailureReason != nil {
		data["failure_reason"] = *order.FailureReason
	}
	s.send(ctx, Notification{
		Type:        NotificationOrderStatusChanged,
		RecipientID: derefString(order.DriverID),
		Title:       "Order Updated",
		Message:     fmt.Sprintf("Order %s moved from %s to %s", order.OrderNumber, from, order.Status),
		Data:        data,
		CreatedAt:   time.Now(),
	})
}

// NotifyPaymentConfirmed reports a recorded payment.
func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, order *domain.Order) {
	if order.Pricing == nil {
		return
	}
	s.send(ctx, Notification{
		Type:        NotificationPaymentConfirmed,
		RecipientID: derefString(order.DriverID),
		Title:       "Payment Confirmed",
		Message:     fmt.Sprintf("Payment of %s %.2f recorded for %s", domain.Currency, order.Pricing.Total, order.OrderNumber),
		Data: map[string]any{
			"order_id":       order.ID,
			"total":          order.Pricing.Total,
			"payment_method": order.Pricing.PaymentMethod,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyExpenseSubmitted reports a new expense claim.
func (s *NotificationService) NotifyExpenseSubmitted(ctx context.Context, expense *domain.Expense) {
	s.send(ctx, Notification{
		Type:        NotificationExpenseSubmitted,
		RecipientID: expense.DriverID,
		Title:       "Expense Submitted",
		Message:     fmt.Sprintf("%s expense of %s %.2f awaiting review", expense.Type, domain.Currency, expense.Amount),
		Data: map[string]any{
			"request_id": expense.RequestID,
			"amount":     expense.Amount,
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	fields := log.Fields{
		"type":      n.Type,
		"recipient": n.RecipientID,
		"title":     n.Title,
	}
	for k, v := range n.Data {
		fields[k] = v
	}
	s.logger.WithContext(ctx).WithFields(fields).Info(n.Message)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
