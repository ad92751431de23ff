package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"delivery/internal/domain"
	"delivery/internal/pricing"
	"delivery/internal/repository"
)

// ExpenseService handles driver expense claims.
type ExpenseService struct {
	expenses      repository.ExpenseRepository
	notifications *NotificationService
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(expenses repository.ExpenseRepository, notifications *NotificationService) *ExpenseService {
	if notifications == nil {
		notifications = NewNotificationService(nil)
	}
	return &ExpenseService{expenses: expenses, notifications: notifications}
}

// SubmitExpenseRequest contains a new expense claim.
type SubmitExpenseRequest struct {
	DriverID     string
	Type         string
	Amount       pricing.Numeric
	Description  string
	ReceiptImage string
}

// Submit validates and stores a pending expense claim.
func (s *ExpenseService) Submit(ctx context.Context, req SubmitExpenseRequest) (*domain.Expense, error) {
	driverID := strings.TrimSpace(req.DriverID)
	if driverID == "" || strings.TrimSpace(req.Type) == "" {
		return nil, fmt.Errorf("%w: driver_id, type and amount are required", ErrValidation)
	}
	if !req.Amount.Valid || req.Amount.Value <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}
	expenseType := domain.ExpenseType(strings.TrimSpace(req.Type))
	if !expenseType.Valid() {
		return nil, fmt.Errorf("%w: invalid expense type %q", ErrValidation, req.Type)
	}

	now := time.Now()
	expense := &domain.Expense{
		ID:             uuid.New().String(),
		RequestID:      newExpenseRequestID(now),
		DriverID:       driverID,
		Type:           expenseType,
		Amount:         pricing.Round2(req.Amount.Value),
		Description:    optionalString(req.Description),
		ReceiptImage:   optionalString(req.ReceiptImage),
		Status:         domain.ExpenseStatusPending,
		SubmissionDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"driver_id":  driverID,
			"request_id": expense.RequestID,
		}).Error("failed to submit expense")
		return nil, err
	}

	s.notifications.NotifyExpenseSubmitted(ctx, expense)
	return expense, nil
}

// List returns a driver's expenses, optionally filtered by review status.
func (s *ExpenseService) List(ctx context.Context, driverID, status string) ([]*domain.Expense, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrValidation)
	}
	st := domain.ExpenseStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, fmt.Errorf("%w: invalid expense status %q", ErrValidation, status)
	}

	expenses, err := s.expenses.ListByDriver(ctx, driverID, st)
	if err != nil {
		log.WithError(err).WithField("driver_id", driverID).Error("failed to list expenses")
		return nil, err
	}
	return expenses, nil
}

// newExpenseRequestID returns EXP-<unix millis>-<9 random base36 chars>.
func newExpenseRequestID(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[:8]), 36)
	for len(suffix) < 9 {
		suffix = "0" + suffix
	}
	return fmt.Sprintf("EXP-%d-%s", now.UnixMilli(), suffix[len(suffix)-9:])
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
