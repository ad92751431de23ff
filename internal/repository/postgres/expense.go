package postgres

import (
	"context"
	"database/sql"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

const (
	insertExpenseQuery = `
		INSERT INTO expenses (id, request_id, driver_id, type, amount, description, receipt_image, status, submission_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	listExpensesByDriverQuery = `
		SELECT id, request_id, driver_id, type, amount, description, receipt_image, status,
			submission_date, created_at, updated_at, reviewed_at, reviewed_by, review_notes
		FROM expenses
		WHERE driver_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`
)

// ExpenseRepository is a PostgreSQL implementation of repository.ExpenseRepository.
type ExpenseRepository struct {
	q Querier
}

// NewExpenseRepository creates a new PostgreSQL expense repository.
func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{q: db}
}

// Create persists a new expense claim.
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	_, err := r.q.ExecContext(ctx, insertExpenseQuery,
		e.ID,
		e.RequestID,
		e.DriverID,
		e.Type,
		e.Amount,
		nullString(e.Description),
		nullString(e.ReceiptImage),
		e.Status,
		e.SubmissionDate,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return mapWriteError(err)
}

// ListByDriver returns the driver's expenses, newest first.
func (r *ExpenseRepository) ListByDriver(ctx context.Context, driverID string, status domain.ExpenseStatus) ([]*domain.Expense, error) {
	rows, err := r.q.QueryContext(ctx, listExpensesByDriverQuery, driverID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		var (
			e                                domain.Expense
			description, receipt, reviewedBy sql.NullString
			reviewNotes                      sql.NullString
			reviewedAt                       sql.NullTime
		)
		if err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.DriverID,
			&e.Type,
			&e.Amount,
			&description,
			&receipt,
			&e.Status,
			&e.SubmissionDate,
			&e.CreatedAt,
			&e.UpdatedAt,
			&reviewedAt,
			&reviewedBy,
			&reviewNotes,
		); err != nil {
			return nil, err
		}
		e.Description = stringPtr(description)
		e.ReceiptImage = stringPtr(receipt)
		e.ReviewedAt = timePtr(reviewedAt)
		e.ReviewedBy = stringPtr(reviewedBy)
		e.ReviewNotes = stringPtr(reviewNotes)
		expenses = append(expenses, &e)
	}
	return expenses, rows.Err()
}

var _ repository.ExpenseRepository = (*ExpenseRepository)(nil)
