package repository

import (
	"context"

	"delivery/internal/domain"
)

// ExpenseRepository defines the persistence operations for driver expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error

	// ListByDriver returns the driver's expenses newest first, optionally
	// filtered by review status.
	ListByDriver(ctx context.Context, driverID string, status domain.ExpenseStatus) ([]*domain.Expense, error)
}
