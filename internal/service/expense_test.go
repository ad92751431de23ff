package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/domain"
	"delivery/internal/pricing"
	"delivery/internal/service"
	"delivery/internal/testutil"
)

func TestExpenseService_Submit(t *testing.T) {
	store := testutil.NewExpenseStore()
	svc := service.NewExpenseService(store, nil)
	ctx := context.Background()

	expense, err := svc.Submit(ctx, service.SubmitExpenseRequest{
		DriverID:    "drv-1",
		Type:        "Fuel",
		Amount:      pricing.Num(120.5),
		Description: "Full tank",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseStatusPending, expense.Status)
	assert.Regexp(t, `^EXP-\d+-[0-9a-z]{9}$`, expense.RequestID)
	require.NotNil(t, expense.Description)
	assert.Nil(t, expense.ReceiptImage)
	assert.Nil(t, expense.ReviewedAt)

	listed, err := svc.List(ctx, "drv-1", "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, expense.RequestID, listed[0].RequestID)
}

func TestExpenseService_SubmitValidation(t *testing.T) {
	svc := service.NewExpenseService(testutil.NewExpenseStore(), nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		req  service.SubmitExpenseRequest
	}{
		{"missing driver", service.SubmitExpenseRequest{Type: "Fuel", Amount: pricing.Num(10)}},
		{"missing type", service.SubmitExpenseRequest{DriverID: "d", Amount: pricing.Num(10)}},
		{"non-numeric amount", service.SubmitExpenseRequest{DriverID: "d", Type: "Fuel"}},
		{"zero amount", service.SubmitExpenseRequest{DriverID: "d", Type: "Fuel", Amount: pricing.Num(0)}},
		{"negative amount", service.SubmitExpenseRequest{DriverID: "d", Type: "Toll", Amount: pricing.Num(-4)}},
		{"unknown type", service.SubmitExpenseRequest{DriverID: "d", Type: "Lunch", Amount: pricing.Num(10)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.req)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}
}

func TestExpenseService_ListFiltersByStatus(t *testing.T) {
	store := testutil.NewExpenseStore()
	svc := service.NewExpenseService(store, nil)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &domain.Expense{ID: "e1", RequestID: "EXP-1", DriverID: "drv-1", Status: domain.ExpenseStatusApproved}))
	require.NoError(t, store.Create(ctx, &domain.Expense{ID: "e2", RequestID: "EXP-2", DriverID: "drv-1", Status: domain.ExpenseStatusPending}))
	require.NoError(t, store.Create(ctx, &domain.Expense{ID: "e3", RequestID: "EXP-3", DriverID: "drv-2", Status: domain.ExpenseStatusPending}))

	pending, err := svc.List(ctx, "drv-1", "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "e2", pending[0].ID)

	_, err = svc.List(ctx, "drv-1", "archived")
	assert.ErrorIs(t, err, service.ErrValidation)
}
