package repository

import (
	"context"

	"delivery/internal/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	Statuses []domain.OrderStatus
	// DriverID, when set, matches orders assigned to the driver or not yet assigned.
	DriverID string
	Limit    int
}

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create persists a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// ListHistory returns terminal orders, most recently finished first.
	ListHistory(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)

	// UpdateStatus writes the lifecycle fields of order, but only if the stored
	// status still equals expected.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error

	// RecordPayment writes delivered products and the pricing snapshot of an
	// unpaid, non-terminal order.
	RecordPayment(ctx context.Context, order *domain.Order) error
}
